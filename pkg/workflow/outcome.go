package workflow

import (
	"errors"

	"github.com/mmcdole/verity/pkg/authorization"
	"github.com/mmcdole/verity/pkg/fingerprint"
)

// ReasonFileRead is reported when the design file could not be read
const ReasonFileRead authorization.Reason = "FileReadError"

var (
	// ErrSuperseded is returned by a task whose result was discarded because
	// a later selection or submission replaced it
	ErrSuperseded = errors.New("superseded by a later request")

	// ErrPrinterNotListed is returned when selecting a printer outside the registry
	ErrPrinterNotListed = errors.New("printer is not available for selection")
)

// ReasonOf classifies err into the rejection taxonomy
func ReasonOf(err error) (authorization.Reason, bool) {
	var readErr *fingerprint.FileReadError
	if errors.As(err, &readErr) {
		return ReasonFileRead, true
	}
	return authorization.ReasonOf(err)
}

// Message returns the text shown to the user for err
func Message(err error) string {
	if err == nil {
		return ""
	}
	reason, ok := ReasonOf(err)
	if !ok {
		return err.Error()
	}
	switch reason {
	case authorization.ReasonIncompleteRequest:
		return "Please complete all fields"
	case authorization.ReasonUnauthorizedUser:
		return "Unauthorized user"
	case authorization.ReasonUnauthorizedPrinter:
		return "You are not authorized to use this printer"
	case ReasonFileRead:
		return "Could not read the design file"
	}
	return err.Error()
}
