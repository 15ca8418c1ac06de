package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterFiveConsecutiveFailures(t *testing.T) {
	b := newCircuitBreaker()
	start := time.Unix(0, 0)
	b.now = func() time.Time { return start }

	for i := 0; i < failureThreshold; i++ {
		require.True(t, b.Allow())
		b.RecordFailure()
	}

	assert.Equal(t, breakerOpen, b.State())
	assert.False(t, b.Allow())
}

func TestCircuitBreaker_HalfOpenAfterOpenDuration_ClosesOnSuccess(t *testing.T) {
	b := newCircuitBreaker()
	now := time.Unix(0, 0)
	b.now = func() time.Time { return now }

	for i := 0; i < failureThreshold; i++ {
		b.Allow()
		b.RecordFailure()
	}
	require.Equal(t, breakerOpen, b.State())

	now = now.Add(openDuration)
	require.True(t, b.Allow())
	assert.Equal(t, breakerHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, breakerClosed, b.State())
}

func TestCircuitBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b := newCircuitBreaker()
	now := time.Unix(0, 0)
	b.now = func() time.Time { return now }

	for i := 0; i < failureThreshold; i++ {
		b.Allow()
		b.RecordFailure()
	}
	now = now.Add(openDuration)
	require.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, breakerOpen, b.State())
}

func TestCircuitBreaker_FailuresOutsideWindowDoNotAccumulate(t *testing.T) {
	b := newCircuitBreaker()
	now := time.Unix(0, 0)
	b.now = func() time.Time { return now }

	b.Allow()
	b.RecordFailure()

	now = now.Add(failureWindow + time.Second)
	for i := 0; i < failureThreshold-1; i++ {
		b.Allow()
		b.RecordFailure()
	}

	assert.Equal(t, breakerClosed, b.State())
}
