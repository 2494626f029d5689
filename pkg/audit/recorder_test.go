package audit

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/verity/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRecorder captures entries for test verification.
type recordingRecorder struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (r *recordingRecorder) Record(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return r.err
}

var granted = Entry{
	PermitID: "DOD-2026-10-16-ABC123",
	Identity: "john.doe@dod.mil",
	Printer:  "Printer-7",
	FileHash: "e3b0c442",
	Decision: DecisionGranted,
	At:       time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
}

var rejected = Entry{
	Identity: "jane.smith@lockheed.com",
	Printer:  "Printer-9",
	FileHash: "e3b0c442",
	Decision: DecisionRejected,
	Reason:   "UnauthorizedPrinter",
	At:       time.Date(2026, 10, 16, 12, 0, 1, 0, time.UTC),
}

func TestNopRecorder(t *testing.T) {
	assert.NoError(t, NopRecorder{}.Record(context.Background(), granted))
}

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogRecorder(logging.NewAccessLoggerWriter(&buf))

	require.NoError(t, r.Record(context.Background(), granted))
	require.NoError(t, r.Record(context.Background(), rejected))

	out := buf.String()
	assert.Contains(t, out, "op=AUTHORIZE user=john.doe@dod.mil status=granted printer=Printer-7 file_hash=e3b0c442 permit_id=DOD-2026-10-16-ABC123")
	assert.Contains(t, out, "op=AUTHORIZE user=jane.smith@lockheed.com status=rejected printer=Printer-9 file_hash=e3b0c442 reason=UnauthorizedPrinter")
}

func TestMultiRecorder(t *testing.T) {
	boom := errors.New("disk full")
	ok := &recordingRecorder{}
	failing := &recordingRecorder{err: boom}

	err := MultiRecorder{failing, ok}.Record(context.Background(), granted)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ok.entries, 1, "later backends still receive the entry")
	assert.Len(t, failing.entries, 1)
}

func TestSQLiteRecorder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit", "verity.db")

	r, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { r.Close() }()

	require.NoError(t, r.Record(ctx, granted))
	require.NoError(t, r.Record(ctx, rejected))

	t.Run("reads back in order", func(t *testing.T) {
		entries, err := r.Entries(ctx, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, granted, entries[0])
		assert.Equal(t, rejected, entries[1])
	})

	t.Run("limit keeps the newest", func(t *testing.T) {
		entries, err := r.Entries(ctx, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, rejected, entries[0])
	})

	t.Run("permit ids are unique", func(t *testing.T) {
		assert.Error(t, r.Record(ctx, granted))
	})

	t.Run("rejections share an empty permit id", func(t *testing.T) {
		assert.NoError(t, r.Record(ctx, rejected))
	})

	t.Run("append only", func(t *testing.T) {
		_, err := r.db.Exec(`UPDATE audit_log SET decision = 'granted'`)
		assert.Error(t, err)
		_, err = r.db.Exec(`DELETE FROM audit_log`)
		assert.Error(t, err)

		entries, err := r.Entries(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("survives reopen", func(t *testing.T) {
		require.NoError(t, r.Close())
		reopened, err := OpenSQLite(path)
		require.NoError(t, err)
		r = reopened

		entries, err := r.Entries(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})
}
