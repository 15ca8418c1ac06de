package orchestrator

import (
	"sync"

	"github.com/reqflow/engine/internal/clarify"
	"github.com/reqflow/engine/internal/clock"
	"github.com/reqflow/engine/internal/config"
	"github.com/reqflow/engine/internal/types"
)

// sessionState is everything the Orchestrator holds in memory for one live
// session: the session record, its exclusively-owned task tree and
// collaboration state, the clarification engine driving its dialogue, and
// the cancellation scope every task running on its behalf is bound to.
//
// CollaborationState, the task tree and ClarificationRounds are exclusively
// owned here; Agent Runtime instances only ever receive borrowed read-only
// views for the duration of a single Run call.
type sessionState struct {
	mu sync.Mutex

	session *types.Session
	collab  *types.CollaborationState
	tasks   map[types.ID]*types.Task
	clarify *clarify.Engine
	scope   *clock.Scope

	// answers delivers submit_answer payloads to a clarifying loop blocked
	// awaiting the user; buffered with one slot, so SubmitAnswer returns
	// without waiting for a reader unless an earlier submission is still
	// unreceived.
	answers chan map[types.ID]string

	rounds []types.ClarificationRound

	lastEventAt int64 // unix nano, advanced on every publish
}

func newSessionState(sess *types.Session, oc config.OrchestratorConfig) *sessionState {
	return &sessionState{
		session: sess,
		collab:  types.NewCollaborationState(),
		tasks:   make(map[types.ID]*types.Task),
		clarify: clarify.New(clarifyConfigFrom(oc)),
		scope:   clock.NewRootScope(),
		answers: make(chan map[types.ID]string, 1),
	}
}

// clarifyConfigFrom maps the operator-tunable subset of OrchestratorConfig
// onto clarify.Config, so GATE_OVERALL/MAX_CLARIFICATION_ROUNDS/etc. set via
// config file or env var actually reach the gate that enforces them.
// MaxQuestionsPerRound and HighPriorityCap have no config-file equivalent
// yet and keep clarify.DefaultConfig's values.
func clarifyConfigFrom(oc config.OrchestratorConfig) clarify.Config {
	cfg := clarify.DefaultConfig()
	cfg.GateOverall = oc.GateOverall
	cfg.GateCritical = oc.GateCritical
	cfg.FloorOverall = oc.FloorOverall
	cfg.MaxRounds = oc.MaxClarificationRounds
	cfg.EarlyStopEpsilon = oc.EarlyStopEpsilon
	return cfg
}

// task returns a session's task by id, taking the session lock.
func (s *sessionState) task(id types.ID) (*types.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

func (s *sessionState) putTask(t *types.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

func (s *sessionState) allTasks() []*types.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}

// recomputeRootProgress sets the root task's Progress to the weighted mean
// of its direct children's Progress, each weighted by its Weight. It
// returns the root task so the caller can decide whether to persist it,
// or nil if the root isn't tracked yet.
func (s *sessionState) recomputeRootProgress(rootID types.ID) *types.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, ok := s.tasks[rootID]
	if !ok {
		return nil
	}

	var weighted, totalWeight float64
	for id, t := range s.tasks {
		if id == rootID || t.ParentID != rootID {
			continue
		}
		weighted += t.Weight * t.Progress
		totalWeight += t.Weight
	}
	if totalWeight > 0 {
		root.Progress = weighted / totalWeight
	}
	return root
}
