// Package clarify implements the Quality-Driven Clarification Engine: gate
// evaluation, question selection, and idempotent answer tracking for the
// Flow Orchestrator's clarifying phase.
package clarify

import (
	"sync"

	"github.com/reqflow/engine/internal/types"
)

// Engine drives one session's clarification dialogue. It holds no LLM or
// persistence dependency; the Clarifier agent produces snapshots and
// candidate questions, and the Engine decides what to do with them.
type Engine struct {
	cfg Config

	mu      sync.Mutex
	history []float64
	seen    map[types.AnswerKey]struct{}
}

// New constructs an Engine with cfg; a zero Config is replaced with
// DefaultConfig.
func New(cfg Config) *Engine {
	if cfg.MaxRounds == 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg, seen: make(map[types.AnswerKey]struct{})}
}

// Evaluate records snap's overall score into the round history and decides
// the next orchestrator action for roundNumber (1-indexed).
func (e *Engine) Evaluate(snap types.QualitySnapshot, roundNumber int) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, snap.Overall)
	return Next(e.cfg, snap, roundNumber, e.history)
}

// SelectQuestions delegates to the package-level SelectQuestions using the
// engine's configured caps.
func (e *Engine) SelectQuestions(snap types.QualitySnapshot, candidates []types.Question) []types.Question {
	return SelectQuestions(e.cfg, snap, candidates)
}

// RecordAnswer reports whether (roundID, questionID) has already been
// answered. The first call for a given key returns false (fresh) and marks
// it seen; subsequent calls for the same key return true (duplicate),
// matching the original clarification handler's idempotent resubmission
// semantics.
func (e *Engine) RecordAnswer(roundID, questionID types.ID) (duplicate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := types.AnswerKey{RoundID: roundID, QuestionID: questionID}
	if _, ok := e.seen[key]; ok {
		return true
	}
	e.seen[key] = struct{}{}
	return false
}

// MaxRounds returns the configured round ceiling, exposed so the
// orchestrator can detect ClarificationExhausted without importing Config.
func (e *Engine) MaxRounds() int {
	return e.cfg.MaxRounds
}
