// Package orchestrator implements the Flow Orchestrator: the component
// that drives a session through its phases end-to-end, owns the task tree,
// enforces the Quality-Driven Clarification Engine's gate, schedules Agent
// Runtime instances, and publishes events describing everything it does.
package orchestrator
