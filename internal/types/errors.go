package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the taxonomy of errors the engine can surface, per
// the error handling design: caller errors are surfaced without retry,
// backpressure/transient errors may be retried by the caller or internally,
// and reaper/internal errors are always terminal.
type ErrorCode string

const (
	// Caller errors: surfaced, no retry.
	ErrInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrUnknownSession  ErrorCode = "UNKNOWN_SESSION"
	ErrSessionTerminal ErrorCode = "SESSION_TERMINAL"
	ErrNotClarifying   ErrorCode = "NOT_CLARIFYING"
	ErrInvalidTaskGraph ErrorCode = "INVALID_TASK_GRAPH"

	// Backpressure: caller may retry.
	ErrBusy ErrorCode = "BUSY"

	// Cooperative cancellation, surfaced as terminal.
	ErrCancelled ErrorCode = "CANCELLED"

	// Budget exceeded; retried per policy, then fatal.
	ErrTimeout ErrorCode = "TIMEOUT"

	// Recoverable within a task; retried in place by the caller.
	ErrTransient ErrorCode = "TRANSIENT_ERROR"

	// Circuit open or provider failure; surfaced as task failure.
	ErrLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"

	// Quality gate never passed within max rounds and the floor; terminal.
	ErrClarificationExhausted ErrorCode = "CLARIFICATION_EXHAUSTED"

	// Reaper-initiated terminal failures.
	ErrStaleSession ErrorCode = "STALE_SESSION"
	ErrIdleTimeout  ErrorCode = "IDLE_TIMEOUT"

	// Replay window miss on subscribe.
	ErrReplayUnavailable ErrorCode = "REPLAY_UNAVAILABLE"

	// Bug; logged with stack, terminal.
	ErrInternal ErrorCode = "INTERNAL"
)

// EngineError is the engine's single structured error type. Every error
// that crosses a component boundary is either an *EngineError or gets
// wrapped into one at the boundary so callers can branch on Code instead
// of string-matching messages.
type EngineError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *EngineError with the same Code, so
// callers can do errors.Is(err, &EngineError{Code: ErrTimeout}).
func (e *EngineError) Is(target error) bool {
	var t *EngineError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// New constructs a non-retryable EngineError.
func New(code ErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// NewRetryable constructs an EngineError whose Retryable flag is set,
// signalling to callers that a retry (at the appropriate layer) is sane.
func NewRetryable(code ErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message, Retryable: true}
}

// Wrap attaches code/message context to an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the ErrorCode from err, defaulting to ErrInternal when
// err is not an *EngineError.
func CodeOf(err error) ErrorCode {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}

// IsCode reports whether err is an *EngineError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
