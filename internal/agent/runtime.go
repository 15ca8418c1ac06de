package agent

import (
	"context"
	"time"

	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/llm"
	"github.com/reqflow/engine/internal/types"
)

const maxCyclesTotal = 2

// Generator is the subset of llm.Gateway the Agent Runtime depends on; a
// fake satisfying it drives tests without a real provider.
type Generator interface {
	Generate(ctx context.Context, prompt string, mode llm.Mode) (string, error)
}

// Publisher is the subset of events.Bus the Agent Runtime uses to report
// Think/Act/Reflect progress.
type Publisher interface {
	Publish(kind types.EventKind, payload any) events.Event
}

// Context bundles everything a single Run call needs that is borrowed from
// the owning session: a read-only collaboration view, the LLM Gateway, the
// event publisher, and the session's call mode (used by Act; Think always
// runs in quick mode).
type Context struct {
	SessionID types.ID
	View      types.View
	Gateway   Generator
	Publish   Publisher
	Mode      llm.Mode
}

// Runtime is the single executor for every role: adding a role is a
// RoleSpec data change, never a new Go type.
type Runtime struct{}

// NewRuntime returns a ready-to-use Runtime.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Run executes task's Think -> Act -> Reflect cycle under role, retrying up
// to two cycles total when Reflect's quality gate fails. The caller
// (Orchestrator) commits the returned staging map to CollaborationState;
// Run itself never mutates shared state directly.
func (r *Runtime) Run(ctx context.Context, task *types.Task, role types.RoleSpec, rc Context) (types.TaskResult, map[string]any, error) {
	var lastErr error

	for cycle := 1; cycle <= maxCyclesTotal; cycle++ {
		result, staged, err := r.runOneCycle(ctx, task, role, rc)
		if err != nil {
			if ctx.Err() != nil {
				return types.TaskResult{}, nil, types.New(types.ErrCancelled, "agent cycle cancelled")
			}
			return types.TaskResult{}, nil, err
		}
		if result.Quality.GatePassed || cycle == maxCyclesTotal {
			r.publishProgress(rc, task, 1.0)
			return result, staged, nil
		}
		lastErr = types.New(types.ErrTransient, "reflect quality gate failed, retrying cycle")
	}
	return types.TaskResult{}, nil, lastErr
}

func (r *Runtime) runOneCycle(ctx context.Context, task *types.Task, role types.RoleSpec, rc Context) (types.TaskResult, map[string]any, error) {
	r.publishProgress(rc, task, 0.25)
	thinkOut, err := think(ctx, rc.Gateway, role, task, rc.View)
	if err != nil {
		return types.TaskResult{}, nil, err
	}

	r.publishProgress(rc, task, 0.50)
	staged, artifacts, err := act(ctx, rc.Gateway, role, task, thinkOut, rc.Mode)
	if err != nil {
		return types.TaskResult{}, nil, err
	}

	r.publishProgress(rc, task, 0.75)
	score, err := reflect(ctx, rc.Gateway, role, staged)
	if err != nil {
		return types.TaskResult{}, nil, err
	}

	r.publishProgress(rc, task, 0.90)
	result := types.TaskResult{
		Content:   thinkOut.Summary,
		Quality:   score,
		Artifacts: artifacts,
	}
	return result, staged, nil
}

func (r *Runtime) publishProgress(rc Context, task *types.Task, progress float64) {
	if rc.Publish == nil {
		return
	}
	rc.Publish.Publish(types.EventKindTaskUpdate, events.TaskUpdatePayload{
		TaskID:   task.ID,
		Name:     task.Name,
		Status:   types.StatusRunning,
		Progress: progress,
	})
}

// Timeout returns the per-cycle budget for mode, per spec.md §4.2 defaults.
func Timeout(mode types.Mode) time.Duration {
	switch mode {
	case types.ModeQuick:
		return 30 * time.Second
	case types.ModeDeep:
		return 180 * time.Second
	default:
		return 90 * time.Second
	}
}
