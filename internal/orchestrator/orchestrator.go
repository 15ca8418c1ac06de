package orchestrator

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/reqflow/engine/internal/agent"
	"github.com/reqflow/engine/internal/clock"
	"github.com/reqflow/engine/internal/config"
	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/llm"
	"github.com/reqflow/engine/internal/store"
	"github.com/reqflow/engine/internal/types"
)

// Deps bundles the Orchestrator's external collaborators, all satisfied by
// concrete types elsewhere in the engine (or fakes in tests).
type Deps struct {
	Store     *store.Store
	Events    *events.Manager
	Gateway   agent.Generator
	Clock     clock.Clock
	RoleSpecs map[string]types.RoleSpec
	Config    config.OrchestratorConfig
	Core      config.CoreConfig
	Logger    *slog.Logger
	Tracer    trace.Tracer
}

// Orchestrator is the Flow Orchestrator: it drives every live session
// through the phase machine, owns each session's task tree and
// collaboration state, and is the only writer to the Event Bus and Session
// Store on a session's behalf.
type Orchestrator struct {
	deps Deps
	log  *slog.Logger

	mu       sync.Mutex
	sessions map[types.ID]*sessionState
}

// New constructs an Orchestrator from deps. A zero
// Config.MaxAgentsPerSession replaces the whole Config with defaults; zero
// Core.MaxSessions and Core.IdleTimeoutSeconds become 100 and 1800. Other
// zero-valued Config/Core fields are used as given.
func New(deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.RoleSpecs == nil {
		deps.RoleSpecs = agent.DefaultRoleSpecs()
	}
	if deps.Config.MaxAgentsPerSession == 0 {
		deps.Config = defaultOrchestratorConfig()
	}
	if deps.Core.MaxSessions == 0 {
		deps.Core.MaxSessions = 100
	}
	if deps.Core.IdleTimeoutSeconds == 0 {
		deps.Core.IdleTimeoutSeconds = 1800
	}
	if deps.Tracer == nil {
		deps.Tracer = trace.NewNoopTracerProvider().Tracer("orchestrator")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		deps:     deps,
		log:      log.With("component", "orchestrator"),
		sessions: make(map[types.ID]*sessionState),
	}
}

func defaultOrchestratorConfig() config.OrchestratorConfig {
	return config.OrchestratorConfig{
		MaxAgentsPerSession:    3,
		MaxClarificationRounds: 8,
		GateOverall:            0.8,
		GateCritical:           0.7,
		FloorOverall:           0.6,
		EarlyStopEpsilon:       0.02,
		StaleThreshold:         15 * time.Minute,
	}
}

// Start allocates a new session, seeds its root task, publishes the
// initial phase event, and launches the goroutine that drives it through
// the phase machine. It fails fast with InvalidInput on empty text and Busy
// once the per-process session cap is exceeded.
func (o *Orchestrator) Start(requirementText string, mode types.Mode, projectContext string) (types.ID, error) {
	if requirementText == "" {
		return "", types.New(types.ErrInvalidInput, "requirement_text must not be empty")
	}
	if mode == "" {
		mode = types.ModeStandard
	}

	o.mu.Lock()
	active := 0
	for _, s := range o.sessions {
		s.mu.Lock()
		terminal := s.session.Terminal()
		s.mu.Unlock()
		if !terminal {
			active++
		}
	}
	if active >= o.deps.Core.MaxSessions {
		o.mu.Unlock()
		return "", types.New(types.ErrBusy, "max_sessions_per_process exceeded")
	}

	now := o.deps.Clock.Now()
	sess := &types.Session{
		ID:              types.NewID(),
		Mode:            mode,
		Phase:           types.PhaseClarifying,
		RequirementText: requirementText,
		ProjectContext:  projectContext,
		CreatedAt:       now,
		UpdatedAt:       now,
		LastActivity:    now,
	}
	root := &types.Task{
		ID:        types.NewID(),
		SessionID: sess.ID,
		Name:      "root",
		Status:    types.StatusRunning,
		Weight:    1,
	}
	sess.RootTaskID = root.ID

	st := newSessionState(sess, o.deps.Config)
	st.putTask(root)
	o.sessions[sess.ID] = st
	o.mu.Unlock()

	if o.deps.Store != nil {
		_ = o.deps.Store.PutSession(st.scope.Context(), sess)
		_ = o.deps.Store.PutTask(st.scope.Context(), root)
	}

	o.publish(st, types.EventKindPhase, events.PhasePayload{Phase: sess.Phase})
	o.log.Info("session started", "session_id", sess.ID, "mode", mode)

	go o.drive(st)
	return sess.ID, nil
}

// SubmitAnswer appends answers to the current clarification round and
// re-triggers quality evaluation inside the clarifying loop blocked on
// st.answers.
func (o *Orchestrator) SubmitAnswer(sessionID types.ID, answers map[string]string) error {
	st, err := o.lookup(sessionID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	phase := st.session.Phase
	terminal := st.session.Terminal()
	st.mu.Unlock()

	if terminal {
		return types.New(types.ErrSessionTerminal, "session has already reached a terminal phase")
	}
	if phase != types.PhaseClarifying {
		return types.New(types.ErrNotClarifying, "session is not awaiting clarification answers")
	}

	converted := make(map[types.ID]string, len(answers))
	for k, v := range answers {
		converted[types.ID(k)] = v
	}

	st.mu.Lock()
	st.session.LastActivity = o.deps.Clock.Now()
	st.mu.Unlock()

	// st.answers holds one pending submission: the send returns at once
	// while that slot is free, and blocks until the clarifying loop's
	// awaitAnswers select has received the earlier submission when it is not.
	st.answers <- converted
	return nil
}

// Subscribe exposes the session's event stream, replaying from fromSequence.
func (o *Orchestrator) Subscribe(sessionID types.ID, fromSequence uint64) (<-chan events.Event, func(), error) {
	st, err := o.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}
	bus := o.deps.Events.Bus(sessionID)
	ch, cleanup, ok := bus.Subscribe(fromSequence, 0)
	if !ok {
		return nil, nil, types.New(types.ErrReplayUnavailable, "requested sequence has fallen out of the retention window")
	}
	_ = st
	return ch, cleanup, nil
}

// Cancel requests cooperative cancellation of a session: its scope is
// cancelled, propagating to every in-flight task, and the drive goroutine
// publishes a terminal(failed, Cancelled) event once tasks wind down.
func (o *Orchestrator) Cancel(sessionID types.ID) error {
	st, err := o.lookup(sessionID)
	if err != nil {
		return err
	}
	st.scope.Cancel(types.New(types.ErrCancelled, "cancel requested"))
	return nil
}

// GetSession returns a read-only snapshot: the session, current progress,
// latest clarification round, and artifacts produced so far.
func (o *Orchestrator) GetSession(sessionID types.ID) (types.Snapshot, error) {
	st, err := o.lookup(sessionID)
	if err != nil {
		return types.Snapshot{}, err
	}

	st.mu.Lock()
	sessCopy := *st.session
	var latest *types.ClarificationRound
	if len(st.rounds) > 0 {
		r := st.rounds[len(st.rounds)-1]
		latest = &r
	}
	st.mu.Unlock()

	root, _ := st.task(sessCopy.RootTaskID)
	progress := 0.0
	if root != nil {
		progress = root.Progress
	}

	var artifacts []types.Artifact
	if o.deps.Store != nil {
		artifacts, _ = o.deps.Store.ListArtifacts(st.scope.Context(), sessionID)
	}

	return types.Snapshot{
		Session:     sessCopy,
		Progress:    progress,
		LatestRound: latest,
		Artifacts:   artifacts,
	}, nil
}

func (o *Orchestrator) lookup(sessionID types.ID) (*sessionState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.sessions[sessionID]
	if !ok {
		return nil, types.New(types.ErrUnknownSession, string(sessionID))
	}
	return st, nil
}

// publish emits an event on the session's bus and, if a Store is wired,
// durably persists it before returning — matching append_event's
// durable-before-ack contract.
func (o *Orchestrator) publish(st *sessionState, kind types.EventKind, payload any) events.Event {
	e := o.deps.Events.Publish(st.session.ID, kind, payload)
	atomic.StoreInt64(&st.lastEventAt, e.Timestamp.UnixNano())
	if o.deps.Store != nil {
		_ = o.deps.Store.AppendEvent(st.scope.Context(), e)
	}
	return e
}

// llmMode maps a session Mode onto the Agent Runtime's call mode; workflow
// sessions use standard budgets.
func llmMode(mode types.Mode) llm.Mode {
	switch mode {
	case types.ModeQuick:
		return llm.ModeQuick
	case types.ModeDeep:
		return llm.ModeDeep
	default:
		return llm.ModeStandard
	}
}
