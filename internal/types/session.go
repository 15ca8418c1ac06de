package types

import "time"

// Session is the top-level unit of work: one natural-language requirement
// being driven through clarification, analysis, documentation and review.
// A Session exclusively owns its CollaborationState, Task tree,
// ClarificationRounds, Messages, Artifacts and Event log; Agent Runtime
// instances only ever hold borrowed, by-id references into it for the
// duration of a single task.
type Session struct {
	ID ID `json:"id"`

	Mode  Mode  `json:"mode"`
	Phase Phase `json:"phase"`

	RequirementText string `json:"requirement_text"`
	ProjectContext  string `json:"project_context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LastActivity advances on every inbound user action (start,
	// submit_answer) and backs the stale-session reaper; the clarifying
	// idle timeout runs on its own timer.
	LastActivity time.Time `json:"last_activity"`

	// FailureReason carries the terminal error code once Phase=failed.
	FailureReason ErrorCode `json:"failure_reason,omitempty"`

	// RootTaskID is the id of the single root task created at start.
	RootTaskID ID `json:"root_task_id"`
}

// Terminal reports whether the session will not transition further.
func (s *Session) Terminal() bool {
	return s.Phase.Terminal()
}

// Snapshot is the read-only view returned by get_session: the session
// itself plus the latest clarification round and any artifacts produced
// so far, regardless of whether the session has reached a terminal phase.
type Snapshot struct {
	Session          Session            `json:"session"`
	Progress         float64            `json:"progress"`
	LatestRound      *ClarificationRound `json:"latest_round,omitempty"`
	Artifacts        []Artifact         `json:"artifacts,omitempty"`
}
