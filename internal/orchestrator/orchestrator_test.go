package orchestrator

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflow/engine/internal/agent"
	"github.com/reqflow/engine/internal/config"
	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/llm"
	"github.com/reqflow/engine/internal/types"
)

const highQualityJSON = `{"quality":{"dimensions":[
{"dimension":"functional","score":0.9},
{"dimension":"non_functional","score":0.85},
{"dimension":"user_roles","score":0.8},
{"dimension":"business_rules","score":0.85},
{"dimension":"constraints","score":0.8},
{"dimension":"acceptance_criteria","score":0.82},
{"dimension":"integration","score":0.8},
{"dimension":"data","score":0.8}
],"overall":0.82},"questions":[]}`

const lowQualityJSON = `{"quality":{"dimensions":[
{"dimension":"functional","score":0.3},
{"dimension":"non_functional","score":0.3},
{"dimension":"user_roles","score":0.3},
{"dimension":"business_rules","score":0.3},
{"dimension":"constraints","score":0.3},
{"dimension":"acceptance_criteria","score":0.3},
{"dimension":"integration","score":0.3},
{"dimension":"data","score":0.3}
],"overall":0.3},"questions":[{"id":"q1","text":"Who are the users?","category":"user_roles","priority":"high"}]}`

// fakeGenerator inspects each prompt to decide which Think/Act/Reflect step
// is calling it, since agent.Generator is a single uniform method. The
// clarifier's "clarify" sub-step call counts up so a test can script a
// low-quality first round followed by a high-quality round after answers.
type fakeGenerator struct {
	clarifyResponses []string
	clarifyCalls     atomic.Int64
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, mode llm.Mode) (string, error) {
	switch {
	case strings.Contains(prompt, "Score the following"):
		return `{"completeness":0.9,"accuracy":0.9,"professionalism":0.9,"clarity":0.9,"actionability":0.9,"innovation":0.9}`, nil
	case strings.Contains(prompt, `sub-step "clarify"`):
		idx := int(g.clarifyCalls.Add(1)) - 1
		if idx >= len(g.clarifyResponses) {
			idx = len(g.clarifyResponses) - 1
		}
		return g.clarifyResponses[idx], nil
	case strings.Contains(prompt, "executing sub-step"):
		return "adequate sub-step output covering the requested content.", nil
	default:
		return `{"summary":"proceeding","insights":[],"next_actions":[],"confidence":0.9,"reasoning_chain":[]}`, nil
	}
}

func newTestOrchestrator(gen *fakeGenerator) *Orchestrator {
	return New(Deps{
		Gateway:   gen,
		Events:    events.NewManager(),
		RoleSpecs: agent.DefaultRoleSpecs(),
		Config: config.OrchestratorConfig{
			MaxAgentsPerSession:    3,
			MaxClarificationRounds: 8,
			GateOverall:            0.8,
			GateCritical:           0.7,
			FloorOverall:           0.6,
			EarlyStopEpsilon:       0.02,
			StaleThreshold:         15 * time.Minute,
		},
		Core: config.CoreConfig{MaxSessions: 10, IdleTimeoutSeconds: 5},
	})
}

func awaitTerminal(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Kind == types.EventKindTerminal {
				return e
			}
		case <-deadline:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func TestOrchestrator_QuickHappyPath_SingleRoundNoQuestions(t *testing.T) {
	gen := &fakeGenerator{clarifyResponses: []string{highQualityJSON}}
	o := newTestOrchestrator(gen)

	sessionID, err := o.Start("As a user I want to reset my password so that I can regain account access.", types.ModeQuick, "")
	require.NoError(t, err)

	ch, cleanup, err := o.Subscribe(sessionID, 0)
	require.NoError(t, err)
	defer cleanup()

	term := awaitTerminal(t, ch)
	payload := term.Payload.(events.TerminalPayload)
	assert.Equal(t, types.PhaseDone, payload.Phase)
	assert.Nil(t, payload.Error)

	snap, err := o.GetSession(sessionID)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseDone, snap.Session.Phase)
	assert.Equal(t, 1.0, snap.Progress)
	assert.Equal(t, int64(1), gen.clarifyCalls.Load())
}

func TestOrchestrator_ClarifyingAsksQuestionsThenProceedsAfterAnswers(t *testing.T) {
	gen := &fakeGenerator{clarifyResponses: []string{lowQualityJSON, highQualityJSON}}
	o := newTestOrchestrator(gen)

	sessionID, err := o.Start("Add a reporting feature.", types.ModeQuick, "")
	require.NoError(t, err)

	ch, cleanup, err := o.Subscribe(sessionID, 0)
	require.NoError(t, err)
	defer cleanup()

	var sawMessage bool
	deadline := time.After(5 * time.Second)
waitForQuestion:
	for {
		select {
		case e := <-ch:
			if e.Kind == types.EventKindMessage {
				sawMessage = true
				break waitForQuestion
			}
		case <-deadline:
			t.Fatal("timed out waiting for clarifying question message")
		}
	}
	assert.True(t, sawMessage)

	err = o.SubmitAnswer(sessionID, map[string]string{"q1": "Sales and support staff."})
	require.NoError(t, err)

	term := awaitTerminal(t, ch)
	payload := term.Payload.(events.TerminalPayload)
	assert.Equal(t, types.PhaseDone, payload.Phase)
	assert.Equal(t, int64(2), gen.clarifyCalls.Load())
}

func TestOrchestrator_UnknownSessionOperationsFail(t *testing.T) {
	o := newTestOrchestrator(&fakeGenerator{clarifyResponses: []string{highQualityJSON}})

	_, err := o.GetSession(types.NewID())
	assert.Equal(t, types.ErrUnknownSession, types.CodeOf(err))

	err = o.Cancel(types.NewID())
	assert.Equal(t, types.ErrUnknownSession, types.CodeOf(err))
}

func TestOrchestrator_StartRejectsEmptyRequirementText(t *testing.T) {
	o := newTestOrchestrator(&fakeGenerator{clarifyResponses: []string{highQualityJSON}})

	_, err := o.Start("", types.ModeQuick, "")
	assert.Equal(t, types.ErrInvalidInput, types.CodeOf(err))
}
