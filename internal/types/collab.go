package types

import "sync"

// CollaborationState is the session-scoped, revisioned shared-data map that
// agent cycles read a snapshot of and commit staged writes into. It is
// exclusively owned and mutated by the Flow Orchestrator; Agent Runtime
// instances never write to it directly — they commit through the
// orchestrator at the end of a successful cycle.
type CollaborationState struct {
	mu sync.RWMutex

	roles    map[string]AgentStatus
	shared   map[string]any
	revision uint64
}

// NewCollaborationState returns an empty state at revision 0.
func NewCollaborationState() *CollaborationState {
	return &CollaborationState{
		roles:  make(map[string]AgentStatus),
		shared: make(map[string]any),
	}
}

// View is a read-only, point-in-time copy of the collaboration state: the
// snapshot an Agent Runtime's Think step reads from. Copying on read keeps
// the orchestrator's lock held for the shortest possible time.
type View struct {
	Revision uint64
	Roles    map[string]AgentStatus
	Shared   map[string]any
}

// Snapshot takes a copy-on-read view at the current revision.
func (c *CollaborationState) Snapshot() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	roles := make(map[string]AgentStatus, len(c.roles))
	for k, v := range c.roles {
		roles[k] = v
	}
	shared := make(map[string]any, len(c.shared))
	for k, v := range c.shared {
		shared[k] = v
	}
	return View{Revision: c.revision, Roles: roles, Shared: shared}
}

// SetRoleStatus updates a single role's status without bumping the
// revision; role status transitions are observability, not commit data.
func (c *CollaborationState) SetRoleStatus(role string, status AgentStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[role] = status
}

// RoleStatus returns a role's current status.
func (c *CollaborationState) RoleStatus(role string) AgentStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roles[role]
}

// Commit atomically merges a staging map into shared data (last-writer-wins
// per key) and bumps the revision exactly once, regardless of how many keys
// were written. It returns the post-commit revision, which the caller
// attaches to the resulting state-delta event.
func (c *CollaborationState) Commit(staged map[string]any) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range staged {
		c.shared[k] = v
	}
	c.revision++
	return c.revision
}

// Revision returns the current revision without taking a full snapshot.
func (c *CollaborationState) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}
