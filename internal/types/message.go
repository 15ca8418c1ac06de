package types

import "time"

// Message is an append-only record of something said or shown during a
// session: a chat turn, a progress note, an artifact reference, or an
// error. Messages are streamed to subscribers as Events and retained on
// the session for replay.
type Message struct {
	ID        ID          `json:"id"`
	SessionID ID          `json:"session_id"`
	Role      MessageRole `json:"role"`
	Author    string      `json:"author"`
	Kind      MessageKind `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// Artifact is a durable output produced by a task, such as the final
// requirements document. An artifact only becomes externally visible once
// its producing task has reached a terminal successful state.
type Artifact struct {
	ID          ID     `json:"id"`
	SessionID   ID     `json:"session_id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Text        string `json:"text,omitempty"`
	Bytes       []byte `json:"bytes,omitempty"`

	ProducingTaskID ID `json:"producing_task_id"`
}
