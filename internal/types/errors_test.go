package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrTimeout, "llm call exceeded budget", cause)

	assert.Contains(t, err.Error(), "TIMEOUT")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestEngineError_Is(t *testing.T) {
	err := New(ErrBusy, "session cap exceeded")
	target := &EngineError{Code: ErrBusy}

	assert.True(t, errors.Is(err, target))
	assert.False(t, errors.Is(err, &EngineError{Code: ErrTimeout}))
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, ErrInvalidInput, CodeOf(New(ErrInvalidInput, "empty text")))
	require.Equal(t, ErrInternal, CodeOf(errors.New("unstructured")))
}

func TestIsCode(t *testing.T) {
	err := NewRetryable(ErrTransient, "think_parse")
	assert.True(t, IsCode(err, ErrTransient))
	assert.True(t, err.Retryable)
}
