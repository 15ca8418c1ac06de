package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/reqflow/engine/internal/types"
)

const heartbeatInterval = 10 * time.Second

// Manager owns one Bus per active session and a heartbeat ticker per bus
// that publishes a heartbeat whenever nothing else has been published for
// heartbeatInterval, keeping idle subscriber streams alive.
type Manager struct {
	mu    sync.Mutex
	buses map[types.ID]*managedBus
	opts  []Option
}

type managedBus struct {
	bus         *SessionBus
	lastPublish atomic.Int64 // unix nano
	stop        chan struct{}
}

// NewManager returns an empty Manager; opts are applied to every bus it
// creates.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		buses: make(map[types.ID]*managedBus),
		opts:  opts,
	}
}

// Bus returns the session's bus, creating it (and starting its heartbeat
// ticker) on first use.
func (m *Manager) Bus(sessionID types.ID) *SessionBus {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mb, ok := m.buses[sessionID]; ok {
		return mb.bus
	}

	mb := &managedBus{
		bus:  NewSessionBus(sessionID, m.opts...),
		stop: make(chan struct{}),
	}
	mb.lastPublish.Store(time.Now().UnixNano())
	m.buses[sessionID] = mb

	go m.heartbeatLoop(sessionID, mb)
	return mb.bus
}

func (m *Manager) heartbeatLoop(sessionID types.ID, mb *managedBus) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-mb.stop:
			return
		case <-ticker.C:
			last := time.Unix(0, mb.lastPublish.Load())
			if time.Since(last) >= heartbeatInterval {
				mb.bus.Publish(types.EventKindHeartbeat, nil)
			}
		}
	}
}

// Publish routes to the session's bus (creating it if necessary) and
// resets its idle timer.
func (m *Manager) Publish(sessionID types.ID, kind types.EventKind, payload any) Event {
	bus := m.Bus(sessionID)
	m.mu.Lock()
	if mb, ok := m.buses[sessionID]; ok {
		mb.lastPublish.Store(time.Now().UnixNano())
	}
	m.mu.Unlock()
	return bus.Publish(kind, payload)
}

// Remove stops the session's heartbeat ticker and closes its bus. Call
// this on session purge.
func (m *Manager) Remove(sessionID types.ID) {
	m.mu.Lock()
	mb, ok := m.buses[sessionID]
	if ok {
		delete(m.buses, sessionID)
	}
	m.mu.Unlock()

	if ok {
		close(mb.stop)
		mb.bus.Close()
	}
}
