package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reqflow/engine/internal/types"
)

const defaultRetention = 1024

// Bus is a single session's publish/subscribe hub: droppable-kind publish
// never blocks on a slow subscriber, bounded retention and eviction,
// replay-from-sequence on subscribe, and independent cursors per
// subscriber.
type Bus interface {
	// Publish assigns the next sequence number and fans the event out to
	// all subscribers. Droppable kinds (heartbeats) never block; every
	// other kind blocks until delivered so a terminal event can never be
	// silently lost to a full subscriber channel.
	Publish(kind types.EventKind, payload any) Event

	// Subscribe returns a channel that first replays retained events with
	// Sequence >= fromSequence, then delivers live events as published.
	// If fromSequence has already fallen out of the retention window,
	// ok is false and the caller should surface ReplayUnavailable.
	Subscribe(fromSequence uint64, bufferSize int) (ch <-chan Event, cleanup func(), ok bool)

	// SubscriberCount reports the number of live subscriptions.
	SubscriberCount() int

	// Close shuts the bus down, closing every subscriber channel.
	Close()
}

// ErrorHandler is invoked when an event is dropped for a slow subscriber.
type ErrorHandler func(err error, subscriberID string, kind types.EventKind)

// MetricsRecorder records bus activity; nil fields default to no-ops.
type MetricsRecorder interface {
	RecordPublished(kind types.EventKind, subscriberCount int)
	RecordDropped(kind types.EventKind, subscriberID string)
}

type subscription struct {
	id       string
	ch       chan Event
	closed   atomic.Bool
	received atomic.Int64
	dropped  atomic.Int64
}

// SessionBus is the default Bus implementation: one instance per session.
type SessionBus struct {
	mu sync.RWMutex

	sessionID types.ID
	seq       uint64
	retained  []Event

	subscribers map[string]*subscription
	subCounter  uint64

	defaultBufferSize int
	errorHandler      ErrorHandler
	metrics           MetricsRecorder

	closed bool
}

// Option configures a SessionBus.
type Option func(*SessionBus)

func WithDefaultBufferSize(n int) Option {
	return func(b *SessionBus) {
		if n > 0 {
			b.defaultBufferSize = n
		}
	}
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(b *SessionBus) {
		if h != nil {
			b.errorHandler = h
		}
	}
}

func WithMetrics(m MetricsRecorder) Option {
	return func(b *SessionBus) {
		if m != nil {
			b.metrics = m
		}
	}
}

// NewSessionBus creates a bus for one session.
func NewSessionBus(sessionID types.ID, opts ...Option) *SessionBus {
	b := &SessionBus{
		sessionID:         sessionID,
		subscribers:       make(map[string]*subscription),
		defaultBufferSize: 100,
		errorHandler:      func(error, string, types.EventKind) {},
		metrics:           noopMetrics{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish assigns the next sequence number, appends to the retention
// window (evicting the oldest droppable event first if full), and fans
// the event out to subscribers: droppable kinds are delivered
// non-blocking and may be dropped for a slow subscriber, every other
// kind blocks until the subscriber's channel has room.
func (b *SessionBus) Publish(kind types.EventKind, payload any) Event {
	b.mu.Lock()
	b.seq++
	event := Event{
		Sequence:  b.seq,
		SessionID: b.sessionID,
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	b.retain(event)
	subs := make([]*subscription, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	sent := 0
	for _, sub := range subs {
		if sub.closed.Load() {
			continue
		}
		if kind.Droppable() {
			select {
			case sub.ch <- event:
				sent++
				sub.received.Add(1)
			default:
				sub.dropped.Add(1)
				b.metrics.RecordDropped(kind, sub.id)
				b.errorHandler(fmt.Errorf("dropped event for slow subscriber"), sub.id, kind)
			}
			continue
		}

		// Non-droppable kinds (state-delta, task-update, quality, phase,
		// message, terminal) must reach every subscriber: a full channel
		// blocks the publisher instead of silently losing the event, the
		// way retain already refuses to evict these kinds from the
		// retention window.
		sub.ch <- event
		sent++
		sub.received.Add(1)
	}
	if len(subs) > 0 {
		b.metrics.RecordPublished(kind, sent)
	}
	return event
}

// retain appends event to the retention window, evicting the oldest
// droppable (heartbeat) event first when full. State-delta, task-update,
// phase, message and terminal events are never evicted; if the window is
// full of only non-droppable events, it is allowed to grow past the cap
// rather than silently lose replay-critical history.
func (b *SessionBus) retain(event Event) {
	b.retained = append(b.retained, event)
	if len(b.retained) <= defaultRetention {
		return
	}
	for i, e := range b.retained {
		if e.Kind.Droppable() {
			b.retained = append(b.retained[:i], b.retained[i+1:]...)
			return
		}
	}
}

func (b *SessionBus) Subscribe(fromSequence uint64, bufferSize int) (<-chan Event, func(), bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bufferSize <= 0 {
		bufferSize = b.defaultBufferSize
	}

	var replay []Event
	if fromSequence > 0 {
		oldestRetained := uint64(0)
		if len(b.retained) > 0 {
			oldestRetained = b.retained[0].Sequence
		}
		if oldestRetained > fromSequence && b.seq >= fromSequence {
			return nil, nil, false
		}
		for _, e := range b.retained {
			if e.Sequence >= fromSequence {
				replay = append(replay, e)
			}
		}
	} else {
		replay = append(replay, b.retained...)
	}

	b.subCounter++
	id := fmt.Sprintf("sub-%s-%d", b.sessionID, b.subCounter)
	chSize := bufferSize
	if len(replay) > chSize {
		chSize = len(replay)
	}
	sub := &subscription{id: id, ch: make(chan Event, chSize)}
	for _, e := range replay {
		sub.ch <- e
	}
	b.subscribers[id] = sub

	cleanup := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subscribers[id]; ok {
			s.closed.Store(true)
			close(s.ch)
			delete(b.subscribers, id)
		}
	}
	return sub.ch, cleanup, true
}

func (b *SessionBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *SessionBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subscribers {
		s.closed.Store(true)
		close(s.ch)
		delete(b.subscribers, id)
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordPublished(types.EventKind, int)       {}
func (noopMetrics) RecordDropped(types.EventKind, string)      {}

var _ Bus = (*SessionBus)(nil)
