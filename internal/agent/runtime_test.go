package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflow/engine/internal/llm"
	"github.com/reqflow/engine/internal/types"
)

// scriptedGenerator returns successive canned responses regardless of
// prompt content, looping the last one once exhausted.
type scriptedGenerator struct {
	responses []string
	calls     int
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, mode llm.Mode) (string, error) {
	i := g.calls
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	g.calls++
	return g.responses[i], nil
}

func TestRuntime_Run_SucceedsOnFirstCycleWhenGatePasses(t *testing.T) {
	think := `{"summary":"ok","insights":["a"],"next_actions":["do x"],"confidence":0.9,"reasoning_chain":["step"]}`
	actOut := "rendered sub-step output"
	reflectOut := `{"completeness":0.9,"accuracy":0.9,"professionalism":0.9,"clarity":0.9,"actionability":0.9,"innovation":0.9}`

	gen := &scriptedGenerator{responses: []string{think, actOut, reflectOut}}
	rt := NewRuntime()
	role := DefaultRoleSpecs()["documenter"]
	task := &types.Task{ID: types.NewID(), Name: "document"}

	result, staged, err := rt.Run(context.Background(), task, role, Context{Gateway: gen, Mode: llm.ModeStandard})
	require.NoError(t, err)
	assert.True(t, result.Quality.GatePassed)
	assert.NotEmpty(t, staged)
}

func TestRuntime_Run_RetriesOnceWhenGateFailsThenAccepts(t *testing.T) {
	think := `{"summary":"ok"}`
	actOut := "output"
	lowReflect := `{"completeness":0.1,"accuracy":0.1,"professionalism":0.1,"clarity":0.1,"actionability":0.1,"innovation":0.1}`

	gen := &scriptedGenerator{responses: []string{think, actOut, lowReflect, think, actOut, lowReflect}}
	rt := NewRuntime()
	role := DefaultRoleSpecs()["documenter"]
	task := &types.Task{ID: types.NewID(), Name: "document"}

	result, _, err := rt.Run(context.Background(), task, role, Context{Gateway: gen, Mode: llm.ModeStandard})
	require.NoError(t, err)
	assert.False(t, result.Quality.GatePassed)
	assert.Equal(t, 6, gen.calls)
}

func TestRuntime_Run_ThinkParseFailureSurfacesTransient(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"not json", "still not json"}}
	rt := NewRuntime()
	role := DefaultRoleSpecs()["clarifier"]
	task := &types.Task{ID: types.NewID(), Name: "clarify"}

	_, _, err := rt.Run(context.Background(), task, role, Context{Gateway: gen, Mode: llm.ModeStandard})
	require.Error(t, err)
	assert.Equal(t, types.ErrTransient, types.CodeOf(err))
}
