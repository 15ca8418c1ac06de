// Package types defines the core domain entities shared across the engine:
// sessions, tasks, collaboration state, clarification rounds, quality
// snapshots, messages, artifacts and the engine's error taxonomy.
package types

import "github.com/google/uuid"

// ID is an opaque, unique identifier used for sessions, tasks, rounds,
// questions, messages and artifacts. It is a thin string wrapper so entity
// ids remain JSON-friendly and comparable without an extra parse step.
type ID string

// NewID generates a fresh random ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// Empty reports whether the id has not been set.
func (id ID) Empty() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}
