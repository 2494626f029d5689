// Package audit keeps an append-only trail of authorization decisions.
//
// Recording is opt-in and happens after a decision has been applied; the
// Authorizer itself never records anything. A failing recorder never
// changes the outcome of a decision.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/mmcdole/verity/pkg/logging"
)

// Decision is the outcome recorded for an evaluation
type Decision string

const (
	DecisionGranted  Decision = "granted"
	DecisionRejected Decision = "rejected"
)

// Entry is one recorded decision. PermitID is empty for rejections.
type Entry struct {
	PermitID string    `json:"permit_id,omitempty"`
	Identity string    `json:"identity"`
	Printer  string    `json:"printer"`
	FileHash string    `json:"file_hash"`
	Decision Decision  `json:"decision"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

// Recorder appends entries to an audit trail
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NopRecorder discards all entries. Use when no audit backend is configured.
type NopRecorder struct{}

// Record discards the entry.
func (NopRecorder) Record(context.Context, Entry) error { return nil }

// LogRecorder writes entries through the access logger
type LogRecorder struct {
	logger logging.AccessLogger
}

// NewLogRecorder creates a LogRecorder. A nil logger uses logging.Access at
// the time of each call.
func NewLogRecorder(logger logging.AccessLogger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

// Record implements Recorder
func (r *LogRecorder) Record(_ context.Context, e Entry) error {
	logger := r.logger
	if logger == nil {
		logger = logging.Access
	}

	details := []interface{}{"printer", e.Printer, "file_hash", e.FileHash}
	if e.PermitID != "" {
		details = append(details, "permit_id", e.PermitID)
	}
	if e.Reason != "" {
		details = append(details, "reason", e.Reason)
	}
	logger.LogDecision("AUTHORIZE", e.Identity, string(e.Decision), details...)
	return nil
}

// MultiRecorder fans each entry out to every backend
type MultiRecorder []Recorder

// Record implements Recorder. Every backend is attempted; their errors are joined.
func (m MultiRecorder) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
