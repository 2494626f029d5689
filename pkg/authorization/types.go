package authorization

import "errors"

// Reason classifies why no permit was issued
type Reason string

const (
	ReasonIncompleteRequest   Reason = "IncompleteRequest"
	ReasonUnauthorizedUser    Reason = "UnauthorizedUser"
	ReasonUnauthorizedPrinter Reason = "UnauthorizedPrinter"
)

// RejectionError is a terminal, non-retryable authorization outcome. The
// user has to change the request and submit again.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// Is matches any RejectionError with the same Reason
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	return ok && t.Reason == e.Reason
}

var (
	// ErrIncompleteRequest is returned when identity, printer or file is missing
	ErrIncompleteRequest = &RejectionError{Reason: ReasonIncompleteRequest, Message: "please complete all fields"}

	// ErrUnauthorizedUser is returned when the identity is not in the directory
	ErrUnauthorizedUser = &RejectionError{Reason: ReasonUnauthorizedUser, Message: "unauthorized user"}

	// ErrUnauthorizedPrinter is returned when the identity may not use the printer
	ErrUnauthorizedPrinter = &RejectionError{Reason: ReasonUnauthorizedPrinter, Message: "not authorized to use this printer"}
)

// ReasonOf extracts the rejection reason from err
func ReasonOf(err error) (Reason, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}

// Request carries the inputs of one authorization
type Request struct {
	Identity    string
	Printer     string
	Fingerprint string
}

// Validate is the boundary check callers run before Authorize. Every field
// must be non-empty.
func (r Request) Validate() error {
	if r.Identity == "" || r.Printer == "" || r.Fingerprint == "" {
		return ErrIncompleteRequest
	}
	return nil
}
