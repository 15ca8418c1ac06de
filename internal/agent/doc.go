// Package agent implements the Agent Runtime: a single executor,
// parameterized by a RoleSpec, that drives one agent instance through its
// Think -> Act -> Reflect cycle against a borrowed CollaborationState view.
package agent
