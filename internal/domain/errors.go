package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy of failure kinds surfaced by the core.
// Call sites switch on Kind, never on error string contents.
type ErrorKind string

const (
	// ErrKindNotFound marks an addressed entity that does not exist.
	ErrKindNotFound ErrorKind = "not_found"
	// ErrKindConflict marks a duplicate-key or already-active-job conflict.
	ErrKindConflict ErrorKind = "conflict"
	// ErrKindInsufficientData marks a computation lacking its minimum window.
	ErrKindInsufficientData ErrorKind = "insufficient_data"
	// ErrKindNotConfigured marks an adapter missing required secrets.
	ErrKindNotConfigured ErrorKind = "not_configured"
	// ErrKindTransient marks a retry-eligible network/backoff failure.
	ErrKindTransient ErrorKind = "transient"
	// ErrKindBackend marks a database/deserialization/infrastructure failure.
	ErrKindBackend ErrorKind = "backend"
	// ErrKindTimeout marks a soft/hard deadline exceeded in a job.
	ErrKindTimeout ErrorKind = "timeout"
	// ErrKindCancelled marks cooperative cancellation observed.
	ErrKindCancelled ErrorKind = "cancelled"
	// ErrKindComputationError marks an internal scoring/indicator failure
	// that is not a data-availability problem.
	ErrKindComputationError ErrorKind = "computation_error"
)

// CoreError is the single error type used across repository, flow analyzer,
// scoring engine and job orchestrator instead of ad hoc sentinel values.
type CoreError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *CoreError) Unwrap() error { return e.Err }

// Is reports whether target is a *CoreError with the same Kind, so callers
// can write errors.Is(err, &CoreError{Kind: ErrKindNotFound}).
func (e *CoreError) Is(target error) bool {
	var t *CoreError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// NewError builds a CoreError with the given kind, message and cause.
func NewError(kind ErrorKind, msg string, cause error) *CoreError {
	return &CoreError{Kind: kind, Msg: msg, Err: cause}
}

// KindOf extracts the ErrorKind from err, defaulting to ErrKindBackend for
// errors that were not produced by this module.
func KindOf(err error) ErrorKind {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if err == nil {
		return ""
	}
	return ErrKindBackend
}

// Sentinel instances for errors.Is comparisons against a bare kind.
var (
	ErrNotFound          = &CoreError{Kind: ErrKindNotFound}
	ErrConflict          = &CoreError{Kind: ErrKindConflict}
	ErrInsufficientData  = &CoreError{Kind: ErrKindInsufficientData}
	ErrNotConfigured     = &CoreError{Kind: ErrKindNotConfigured}
	ErrTransient         = &CoreError{Kind: ErrKindTransient}
	ErrBackend           = &CoreError{Kind: ErrKindBackend}
	ErrTimeout           = &CoreError{Kind: ErrKindTimeout}
	ErrCancelled         = &CoreError{Kind: ErrKindCancelled}
	ErrComputationError  = &CoreError{Kind: ErrKindComputationError}
)
