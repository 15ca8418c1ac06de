package events

import (
	"time"

	"github.com/reqflow/engine/internal/types"
)

// Event is one entry in a session's total-ordered event log. Sequence
// numbers are assigned before publication and are dense and strictly
// increasing per session; subscribers never observe reordering.
type Event struct {
	Sequence  uint64          `json:"seq"`
	SessionID types.ID        `json:"session_id"`
	Kind      types.EventKind `json:"kind"`
	Timestamp time.Time       `json:"ts"`
	Payload   any             `json:"payload"`
}

// StateDeltaPayload accompanies a state-delta event: the post-commit
// revision of the session's CollaborationState.
type StateDeltaPayload struct {
	Revision uint64            `json:"revision"`
	Roles    map[string]string `json:"roles,omitempty"`
}

// TaskUpdatePayload accompanies a task-update event.
type TaskUpdatePayload struct {
	TaskID   types.ID          `json:"task_id"`
	Name     string            `json:"name"`
	Status   types.AgentStatus `json:"status"`
	Progress float64           `json:"progress"`
}

// QualityPayload accompanies a quality event emitted after each
// clarification turn's evaluation.
type QualityPayload struct {
	RoundID types.ID              `json:"round_id"`
	Quality types.QualitySnapshot `json:"quality"`
}

// PhasePayload accompanies a phase event.
type PhasePayload struct {
	Phase types.Phase `json:"phase"`
}

// MessagePayload accompanies a message event; it mirrors types.Message
// minus the redundant session id (already on the Event envelope).
type MessagePayload struct {
	Role    types.MessageRole `json:"role"`
	Author  string            `json:"author"`
	Kind    types.MessageKind `json:"kind"`
	Payload any               `json:"payload"`
}

// TerminalPayload accompanies the one terminal event a subscriber sees
// before its stream closes.
type TerminalPayload struct {
	Phase types.Phase    `json:"phase"`
	Error *TerminalError `json:"error,omitempty"`
}

// TerminalError is the {kind, message} pair surfaced to subscribers on
// terminal failure.
type TerminalError struct {
	Kind    types.ErrorCode `json:"kind"`
	Message string          `json:"message"`
}

// Filter restricts a subscription to a subset of event kinds. An empty
// Kinds slice matches everything.
type Filter struct {
	Kinds []types.EventKind
}

// Matches reports whether event satisfies the filter.
func (f Filter) Matches(e Event) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if e.Kind == k {
			return true
		}
	}
	return false
}
