package llm

import (
	"sync"
	"time"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

const (
	failureThreshold = 5
	failureWindow    = 60 * time.Second
	openDuration     = 30 * time.Second
)

// circuitBreaker protects the engine from a cascading-failure LLM
// provider: closed -> open after 5 consecutive failures within 60s ->
// half-open after 30s allowing one probe -> closed on success.
type circuitBreaker struct {
	mu sync.Mutex

	state           breakerState
	consecutive     int
	firstFailureAt  time.Time
	openedAt        time.Time
	halfOpenInFlight bool

	now func() time.Time
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{now: time.Now}
}

// Allow reports whether a call may proceed, transitioning open->half-open
// once openDuration has elapsed.
func (b *circuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if b.now().Sub(b.openedAt) >= openDuration {
			b.state = breakerHalfOpen
			b.halfOpenInFlight = true
			return true
		}
		return false
	case breakerHalfOpen:
		if b.halfOpenInFlight {
			return false
		}
		b.halfOpenInFlight = true
		return true
	}
	return false
}

// RecordSuccess closes the breaker and resets failure bookkeeping.
func (b *circuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = breakerClosed
	b.consecutive = 0
	b.halfOpenInFlight = false
}

// RecordFailure counts a failure toward the open threshold (within the
// rolling failureWindow), or immediately re-opens from half-open.
func (b *circuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		b.state = breakerOpen
		b.openedAt = b.now()
		b.halfOpenInFlight = false
		return
	}

	now := b.now()
	if b.consecutive == 0 || now.Sub(b.firstFailureAt) > failureWindow {
		b.firstFailureAt = now
		b.consecutive = 1
	} else {
		b.consecutive++
	}

	if b.consecutive >= failureThreshold {
		b.state = breakerOpen
		b.openedAt = now
	}
}

func (b *circuitBreaker) State() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
