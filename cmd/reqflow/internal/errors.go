package internal

import (
	"context"
	"errors"

	"github.com/reqflow/engine/internal/types"
)

// Exit codes per the engine's CLI/exit-code scheme: 0 normal, 64
// configuration error, 69 unavailable (LLM down), 70 internal.
const (
	ExitOK            = 0
	ExitConfigError   = 64
	ExitUnavailable   = 69
	ExitInternalError = 70
)

// ExitCodeFor maps err onto the process exit code a caller of the CLI
// should see. A nil err always exits 0; graceful shutdown via context
// cancellation also exits 0 since it is the expected outcome of SIGINT/
// SIGTERM, not a failure.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ExitOK
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	switch types.CodeOf(err) {
	case types.ErrLLMUnavailable:
		return ExitUnavailable
	default:
		return ExitInternalError
	}
}

// ConfigError wraps a configuration load/validation failure so
// ExitCodeFor can distinguish it from a runtime EngineError without
// internal/config needing to know about exit codes.
type ConfigError struct {
	Cause error
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Cause.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
