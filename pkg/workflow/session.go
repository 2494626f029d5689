// Package workflow drives one authorization request from file selection to
// permit. Digest computation and submission run asynchronously and a result
// is only applied while it is still the latest one.
package workflow

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	golog "github.com/fclairamb/go-log"
	"github.com/mmcdole/verity/pkg/audit"
	"github.com/mmcdole/verity/pkg/authorization"
	"github.com/mmcdole/verity/pkg/directory"
	"github.com/mmcdole/verity/pkg/fingerprint"
	"github.com/mmcdole/verity/pkg/logging"
	"github.com/mmcdole/verity/pkg/permit"
	"github.com/spf13/afero"
)

// DefaultDelay is the simulated evaluation latency
const DefaultDelay = 1500 * time.Millisecond

// Phase is the position of the current request in Idle -> Evaluating ->
// {Granted, Rejected}
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseEvaluating Phase = "evaluating"
	PhaseGranted    Phase = "granted"
	PhaseRejected   Phase = "rejected"
)

// Config holds the collaborators of a Session
type Config struct {
	Authorizer *authorization.Authorizer // required
	Registry   *directory.Registry       // required
	Hasher     *fingerprint.Hasher       // SHA-256 if nil
	Fs         afero.Fs                  // OS filesystem if nil
	Delay      time.Duration             // wait before evaluating; 0 for none
	Recorder   audit.Recorder            // NopRecorder if nil
	Logger     golog.Logger              // logging.App if nil
}

// State is a snapshot of a session
type State struct {
	Phase       Phase
	FileName    string
	Fingerprint string // set only once the latest digest completed
	Hashing     bool
	Printer     string
	Identity    string
	Permit      *permit.Permit
	Err         error
}

// Session holds one user's in-progress request. It is safe for concurrent use.
type Session struct {
	authorizer *authorization.Authorizer
	registry   *directory.Registry
	hasher     *fingerprint.Hasher
	fs         afero.Fs
	delay      time.Duration
	recorder   audit.Recorder
	logger     golog.Logger

	mu           sync.Mutex
	state        State
	fileGen      uint64
	fileCancel   context.CancelFunc
	submitGen    uint64
	submitCancel context.CancelFunc
}

// NewSession creates an idle Session
func NewSession(cfg Config) (*Session, error) {
	if cfg.Authorizer == nil {
		return nil, fmt.Errorf("authorizer is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("printer registry is required")
	}

	s := &Session{
		authorizer: cfg.Authorizer,
		registry:   cfg.Registry,
		hasher:     cfg.Hasher,
		fs:         cfg.Fs,
		delay:      cfg.Delay,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		state:      State{Phase: PhaseIdle},
	}
	if s.hasher == nil {
		h, err := fingerprint.New(fingerprint.AlgorithmSHA256)
		if err != nil {
			return nil, err
		}
		s.hasher = h
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.delay < 0 {
		s.delay = 0
	}
	if s.recorder == nil {
		s.recorder = audit.NopRecorder{}
	}
	if s.logger == nil {
		s.logger = logging.App
	}
	return s, nil
}

// Snapshot returns the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectFile makes r the design file and starts computing its fingerprint.
// Any digest or submission still in flight is superseded, and a permit
// issued for the previous file is discarded.
func (s *Session) SelectFile(ctx context.Context, name string, r io.Reader) *Task[string] {
	return s.startDigest(ctx, name, func(ctx context.Context) (string, error) {
		sum, err := s.hasher.SumReader(ctx, r)
		if err != nil && ctx.Err() == nil {
			return "", &fingerprint.FileReadError{Path: name, Err: err}
		}
		return sum, err
	})
}

// OpenFile selects the file at path on the session filesystem, like SelectFile
func (s *Session) OpenFile(ctx context.Context, path string) *Task[string] {
	return s.startDigest(ctx, path, func(ctx context.Context) (string, error) {
		return s.hasher.SumFile(ctx, s.fs, path)
	})
}

// UseFingerprint selects a file whose fingerprint was computed elsewhere.
// The fingerprint must be well formed for the session's algorithm.
func (s *Session) UseFingerprint(name, fp string) error {
	if err := s.hasher.Validate(fp); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeFileLocked()
	s.supersedeSubmitLocked()
	s.state.FileName = name
	s.state.Fingerprint = fp
	s.state.Permit = nil
	s.state.Err = nil
	s.state.Phase = PhaseIdle
	return nil
}

func (s *Session) startDigest(ctx context.Context, name string, digest func(context.Context) (string, error)) *Task[string] {
	s.mu.Lock()
	s.supersedeFileLocked()
	s.supersedeSubmitLocked()
	gen := s.fileGen
	dctx, cancel := context.WithCancel(ctx)
	s.fileCancel = cancel

	s.state.FileName = name
	s.state.Fingerprint = ""
	s.state.Hashing = true
	s.state.Permit = nil
	s.state.Err = nil
	s.state.Phase = PhaseIdle
	s.mu.Unlock()

	task := newTask[string](cancel)
	go func() {
		defer cancel()
		sum, err := digest(dctx)
		s.applyDigest(task, gen, name, sum, err)
	}()
	return task
}

func (s *Session) applyDigest(task *Task[string], gen uint64, name, sum string, err error) {
	s.mu.Lock()
	if gen != s.fileGen {
		s.mu.Unlock()
		task.finish("", ErrSuperseded)
		return
	}

	s.fileCancel = nil
	s.state.Hashing = false
	if err != nil {
		s.state.FileName = ""
		if _, ok := ReasonOf(err); ok {
			s.state.Err = err
		}
		s.mu.Unlock()
		s.logger.Warn("Design file digest failed", "file", name, "error", err)
		task.finish("", err)
		return
	}
	s.state.Fingerprint = sum
	s.mu.Unlock()

	s.logger.Debug("Design file fingerprinted", "file", name, "algorithm", s.hasher.Algorithm(), "fingerprint", sum)
	task.finish(sum, nil)
}

// SelectPrinter chooses the printer. Only printers in the registry can be
// chosen; an empty string clears the choice.
func (s *Session) SelectPrinter(printer string) error {
	if printer != "" && !s.registry.Contains(printer) {
		return fmt.Errorf("%w: %s", ErrPrinterNotListed, printer)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeSubmitLocked()
	s.state.Printer = printer
	return nil
}

// SetIdentity records the identity the request is made for. It is taken as
// supplied: no normalization and no verification.
func (s *Session) SetIdentity(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeSubmitLocked()
	s.state.Identity = identity
}

// Submit evaluates the current request. A request missing the file, a
// confirmed fingerprint, the printer or the identity fails immediately with
// ErrIncompleteRequest. Otherwise the session waits the configured delay and
// asks the Authorizer; the result is applied unless superseded first.
func (s *Session) Submit(ctx context.Context) *Task[*permit.Permit] {
	s.mu.Lock()
	req := authorization.Request{
		Identity:    s.state.Identity,
		Printer:     s.state.Printer,
		Fingerprint: s.state.Fingerprint,
	}
	if err := req.Validate(); err != nil || s.state.FileName == "" {
		s.state.Err = authorization.ErrIncompleteRequest
		s.mu.Unlock()
		s.logger.Info("Authorization request incomplete", "user", req.Identity, "printer", req.Printer)
		return completedTask[*permit.Permit](nil, authorization.ErrIncompleteRequest)
	}

	s.supersedeSubmitLocked()
	gen := s.submitGen
	sctx, cancel := context.WithCancel(ctx)
	s.submitCancel = cancel
	s.state.Phase = PhaseEvaluating
	s.state.Permit = nil
	s.state.Err = nil
	s.mu.Unlock()

	s.logger.Info("Authorization submitted", "user", req.Identity, "printer", req.Printer)

	task := newTask[*permit.Permit](cancel)
	go s.evaluate(sctx, cancel, task, gen, req)
	return task
}

func (s *Session) evaluate(ctx context.Context, cancel context.CancelFunc, task *Task[*permit.Permit], gen uint64, req authorization.Request) {
	defer cancel()

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.abandon(task, gen, ctx.Err())
			return
		}
	}
	if err := ctx.Err(); err != nil {
		s.abandon(task, gen, err)
		return
	}

	p, err := s.authorizer.Authorize(req.Identity, req.Printer, req.Fingerprint)

	s.mu.Lock()
	if gen != s.submitGen {
		s.mu.Unlock()
		task.finish(nil, ErrSuperseded)
		return
	}
	s.submitCancel = nil
	if err != nil {
		s.state.Phase = PhaseRejected
		s.state.Err = err
	} else {
		s.state.Phase = PhaseGranted
		s.state.Permit = p
	}
	s.mu.Unlock()

	s.record(context.WithoutCancel(ctx), req, p, err)
	task.finish(p, err)
}

// abandon ends a submission that was cancelled before a decision was applied
func (s *Session) abandon(task *Task[*permit.Permit], gen uint64, err error) {
	s.mu.Lock()
	if gen != s.submitGen {
		s.mu.Unlock()
		task.finish(nil, ErrSuperseded)
		return
	}
	s.submitCancel = nil
	s.state.Phase = PhaseIdle
	s.mu.Unlock()
	task.finish(nil, err)
}

func (s *Session) record(ctx context.Context, req authorization.Request, p *permit.Permit, decisionErr error) {
	entry := audit.Entry{
		Identity: req.Identity,
		Printer:  req.Printer,
		FileHash: req.Fingerprint,
		At:       time.Now(),
	}
	if decisionErr != nil {
		entry.Decision = audit.DecisionRejected
		if reason, ok := ReasonOf(decisionErr); ok {
			entry.Reason = string(reason)
		}
		s.logger.Info("Authorization rejected", "user", req.Identity, "printer", req.Printer, "reason", entry.Reason)
	} else {
		entry.Decision = audit.DecisionGranted
		entry.PermitID = p.ID
		s.logger.Info("Permit issued", "user", req.Identity, "printer", req.Printer, "permit_id", p.ID)
	}

	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Error("Audit record failed", "user", req.Identity, "decision", entry.Decision, "error", err)
	}
}

// Reset cancels all work and returns the session to an empty idle state
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeFileLocked()
	s.supersedeSubmitLocked()
	s.state = State{Phase: PhaseIdle}
}

func (s *Session) supersedeFileLocked() {
	if s.fileCancel != nil {
		s.fileCancel()
		s.fileCancel = nil
	}
	s.fileGen++
	s.state.Hashing = false
}

func (s *Session) supersedeSubmitLocked() {
	if s.submitCancel != nil {
		s.submitCancel()
		s.submitCancel = nil
	}
	s.submitGen++
	if s.state.Phase == PhaseEvaluating {
		s.state.Phase = PhaseIdle
	}
}
