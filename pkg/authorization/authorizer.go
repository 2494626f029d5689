// Package authorization decides whether an identity may print a design on
// a printer and issues the permit when it may.
package authorization

import (
	"fmt"
	"time"

	"github.com/mmcdole/verity/pkg/directory"
	"github.com/mmcdole/verity/pkg/permit"
)

// Authorizer checks requests against an immutable directory. It performs no
// I/O and holds no mutable state, so one Authorizer can serve any number of
// concurrent requests.
type Authorizer struct {
	dir *directory.Directory
	ids permit.IDGenerator
	now func() time.Time
}

// NewAuthorizer creates a new Authorizer. A nil ids uses a RandomGenerator
// with the default prefix; a nil now uses time.Now.
func NewAuthorizer(dir *directory.Directory, ids permit.IDGenerator, now func() time.Time) (*Authorizer, error) {
	if dir == nil {
		return nil, fmt.Errorf("authorization directory is required")
	}
	if ids == nil {
		ids = permit.NewRandomGenerator("")
	}
	if now == nil {
		now = time.Now
	}
	return &Authorizer{dir: dir, ids: ids, now: now}, nil
}

// Authorize issues a permit when identity is in the directory and printer is
// one of its printers. The identity is checked first, so an unknown identity
// learns nothing about printer policy. The fingerprint is embedded verbatim.
func (a *Authorizer) Authorize(identity, printer, fingerprint string) (*permit.Permit, error) {
	if !a.dir.Contains(identity) {
		return nil, ErrUnauthorizedUser
	}
	if printer == "" {
		return nil, ErrIncompleteRequest
	}
	if !a.dir.Allows(identity, printer) {
		return nil, ErrUnauthorizedPrinter
	}

	issued := a.now()
	return permit.Issue(a.ids.NewID(issued), fingerprint, printer, identity, issued), nil
}

// AuthorizeRequest validates req at the boundary and then authorizes it
func (a *Authorizer) AuthorizeRequest(req Request) (*permit.Permit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return a.Authorize(req.Identity, req.Printer, req.Fingerprint)
}
