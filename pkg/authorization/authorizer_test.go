package authorization

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/verity/pkg/directory"
	"github.com/mmcdole/verity/pkg/fingerprint"
	"github.com/mmcdole/verity/pkg/permit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func demoAuthorizer(t *testing.T) *Authorizer {
	t.Helper()
	dir, _, err := directory.DemoSource().Load()
	require.NoError(t, err)
	auth, err := NewAuthorizer(dir, permit.NewCounterGenerator("DOD", "T"), func() time.Time { return fixedNow })
	require.NoError(t, err)
	return auth
}

func TestNewAuthorizer(t *testing.T) {
	t.Run("requires directory", func(t *testing.T) {
		_, err := NewAuthorizer(nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("defaults generator and clock", func(t *testing.T) {
		dir, err := directory.New(map[string][]string{"a": {"P"}})
		require.NoError(t, err)
		auth, err := NewAuthorizer(dir, nil, nil)
		require.NoError(t, err)

		p, err := auth.Authorize("a", "P", "ff")
		require.NoError(t, err)
		assert.Regexp(t, `^DOD-\d{4}-\d{2}-\d{2}-[0-9A-Z]{6}$`, p.ID)
		assert.NotEmpty(t, p.Timestamp)
	})
}

func TestAuthorizeScenarios(t *testing.T) {
	auth := demoAuthorizer(t)
	hash := fingerprint.Compute([]byte("solid part"))

	testCases := []struct {
		name     string
		identity string
		printer  string
		wantErr  error
	}{
		{"A: full access user", "john.doe@dod.mil", "Printer-7", nil},
		{"B: printer outside grant", "jane.smith@lockheed.com", "Printer-9", ErrUnauthorizedPrinter},
		{"C: unknown user", "unknown@example.com", "Printer-7", ErrUnauthorizedUser},
		{"D: single printer granted", "mike.johnson@raytheon.com", "Printer-9", nil},
		{"D: single printer denied", "mike.johnson@raytheon.com", "Printer-7", ErrUnauthorizedPrinter},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := auth.Authorize(tc.identity, tc.printer, hash)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, permit.StatusAuthorized, p.Status)
			assert.Equal(t, hash, p.FileHash)
			assert.Equal(t, tc.printer, p.Printer)
			assert.Equal(t, tc.identity, p.User)
			assert.Equal(t, "2026-10-16T12:00:00.000Z", p.Timestamp)
		})
	}
}

func TestAuthorizePermitIffGranted(t *testing.T) {
	grants := map[string][]string{
		"ops@example.com":   {"P-1", "P-2"},
		"guest@example.com": {"P-3"},
		"idle@example.com":  nil,
	}
	dir, err := directory.New(grants)
	require.NoError(t, err)
	auth, err := NewAuthorizer(dir, nil, nil)
	require.NoError(t, err)

	identities := []string{"ops@example.com", "guest@example.com", "idle@example.com", "OPS@example.com", "nobody", ""}
	printers := []string{"P-1", "P-2", "P-3", "P-4", ""}

	for _, id := range identities {
		for _, pr := range printers {
			p, err := auth.Authorize(id, pr, "00")

			if dir.Allows(id, pr) {
				require.NoError(t, err, "%s on %s", id, pr)
				require.NotNil(t, p)
				continue
			}

			assert.Nil(t, p, "%s on %s", id, pr)
			reason, ok := ReasonOf(err)
			require.True(t, ok, "%s on %s: %v", id, pr, err)

			switch {
			case !dir.Contains(id):
				assert.Equal(t, ReasonUnauthorizedUser, reason, "%s on %s", id, pr)
			case pr == "":
				assert.Equal(t, ReasonIncompleteRequest, reason, "%s on %s", id, pr)
			default:
				assert.Equal(t, ReasonUnauthorizedPrinter, reason, "%s on %s", id, pr)
			}
		}
	}
}

func TestAuthorizeUserTakesPrecedence(t *testing.T) {
	auth := demoAuthorizer(t)

	_, err := auth.Authorize("unknown@example.com", "Printer-404", "00")
	assert.ErrorIs(t, err, ErrUnauthorizedUser)
	assert.False(t, errors.Is(err, ErrUnauthorizedPrinter))

	_, err = auth.Authorize("", "", "")
	assert.ErrorIs(t, err, ErrUnauthorizedUser)
}

func TestAuthorizeEmptyPrinter(t *testing.T) {
	auth := demoAuthorizer(t)
	_, err := auth.Authorize("john.doe@dod.mil", "", "00")
	assert.ErrorIs(t, err, ErrIncompleteRequest)
}

func TestAuthorizeTwice(t *testing.T) {
	dir, _, err := directory.DemoSource().Load()
	require.NoError(t, err)

	clock := fixedNow
	auth, err := NewAuthorizer(dir, permit.NewCounterGenerator("DOD", "T"), func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	require.NoError(t, err)

	first, err := auth.Authorize("john.doe@dod.mil", "Printer-9", "abc")
	require.NoError(t, err)
	second, err := auth.Authorize("john.doe@dod.mil", "Printer-9", "abc")
	require.NoError(t, err)

	assert.Equal(t, first.FileHash, second.FileHash)
	assert.Equal(t, first.Printer, second.Printer)
	assert.Equal(t, first.User, second.User)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Timestamp, second.Timestamp)
	assert.Equal(t, "DOD-2026-10-16-T0001", first.ID)
	assert.Equal(t, "DOD-2026-10-16-T0002", second.ID)
}

func TestAuthorizeRequest(t *testing.T) {
	auth := demoAuthorizer(t)

	testCases := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"missing identity", Request{Printer: "Printer-7", Fingerprint: "ab"}, ErrIncompleteRequest},
		{"missing printer", Request{Identity: "john.doe@dod.mil", Fingerprint: "ab"}, ErrIncompleteRequest},
		{"missing fingerprint", Request{Identity: "john.doe@dod.mil", Printer: "Printer-7"}, ErrIncompleteRequest},
		{"complete and granted", Request{Identity: "john.doe@dod.mil", Printer: "Printer-7", Fingerprint: "ab"}, nil},
		{"complete and rejected", Request{Identity: "jane.smith@lockheed.com", Printer: "Printer-9", Fingerprint: "ab"}, ErrUnauthorizedPrinter},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := auth.AuthorizeRequest(tc.req)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.req.Fingerprint, p.FileHash)
		})
	}
}

func TestAuthorizeConcurrent(t *testing.T) {
	auth := demoAuthorizer(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[string]bool)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			printer := "Printer-7"
			if i%2 == 1 {
				printer = "Printer-9"
			}
			p, err := auth.Authorize("john.doe@dod.mil", printer, "00")
			if assert.NoError(t, err) {
				mu.Lock()
				ids[p.ID] = true
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, ids, 32)
}

func TestRejectionError(t *testing.T) {
	wrapped := &RejectionError{Reason: ReasonUnauthorizedPrinter, Message: "custom text"}
	assert.ErrorIs(t, wrapped, ErrUnauthorizedPrinter)
	assert.False(t, errors.Is(wrapped, ErrUnauthorizedUser))

	reason, ok := ReasonOf(errors.Join(errors.New("context"), ErrUnauthorizedUser))
	assert.True(t, ok)
	assert.Equal(t, ReasonUnauthorizedUser, reason)

	_, ok = ReasonOf(errors.New("other"))
	assert.False(t, ok)
}
