package orchestrator

import (
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/reqflow/engine/internal/agent"
	"github.com/reqflow/engine/internal/contextkeys"
	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/types"
)

const transientMaxRetries = 2

var transientBackoff = []time.Duration{500 * time.Millisecond, 2 * time.Second}

// busPublisher adapts the Orchestrator's publish (which also durably
// persists) into the agent.Publisher interface the Runtime expects.
type busPublisher struct {
	o  *Orchestrator
	st *sessionState
}

func (p busPublisher) Publish(kind types.EventKind, payload any) events.Event {
	return p.o.publish(p.st, kind, payload)
}

// runTaskWithRetry runs one Agent Runtime cycle for task under role,
// retrying up to transientMaxRetries times with exponential backoff on a
// TransientError before marking the task permanently failed. A non-transient
// (fatal) error marks the task failed immediately without retry.
func (o *Orchestrator) runTaskWithRetry(st *sessionState, role types.RoleSpec, task *types.Task, mode types.Mode) error {
	task.Status = types.StatusRunning
	st.putTask(task)
	o.publishTaskUpdate(st, task)

	var lastErr error
	for attempt := 0; attempt <= transientMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-o.deps.Clock.After(backoffFor(attempt)):
			case <-st.scope.Done():
				return types.New(types.ErrCancelled, "task retry abandoned: session cancelled")
			}
			task.RetryCount = attempt
		}

		result, staged, err := o.runTaskOnce(st, role, task, mode)
		if err == nil {
			task.Status = types.StatusSucceeded
			task.Progress = 1.0
			task.Result = &result
			st.putTask(task)
			if o.deps.Store != nil {
				_ = o.deps.Store.PutTask(st.scope.Context(), task)
			}
			o.publishTaskUpdate(st, task)
			if len(staged) > 0 {
				rev := st.collab.Commit(staged)
				o.publish(st, types.EventKindStateDelta, events.StateDeltaPayload{Revision: rev})
			}
			return nil
		}

		lastErr = err
		if types.CodeOf(err) != types.ErrTransient {
			break
		}
	}

	task.Status = types.StatusFailed
	st.putTask(task)
	if o.deps.Store != nil {
		_ = o.deps.Store.PutTask(st.scope.Context(), task)
	}
	o.publishTaskUpdate(st, task)
	return lastErr
}

// runTaskOnce runs a single Think->Act->Reflect attempt bound to a child
// scope that expires after agent.Timeout(mode) (90s standard, 30s quick,
// 180s deep per spec.md §4.2). A timed-out attempt surfaces as ErrCancelled
// through Runtime.Run's own ctx.Err() check, and runTaskWithRetry treats it
// like any other non-transient error: no further retry.
func (o *Orchestrator) runTaskOnce(st *sessionState, role types.RoleSpec, task *types.Task, mode types.Mode) (types.TaskResult, map[string]any, error) {
	taskScope, cancel := st.scope.WithTimeout(agent.Timeout(mode))
	defer cancel()

	ctx := contextkeys.WithTaskID(contextkeys.WithSessionID(taskScope.Context(), string(st.session.ID)), string(task.ID))
	ctx, span := o.deps.Tracer.Start(ctx, "orchestrator.runTask")
	span.SetAttributes(
		attribute.String("reqflow.session_id", string(st.session.ID)),
		attribute.String("reqflow.task_id", string(task.ID)),
		attribute.String("reqflow.task_name", task.Name),
		attribute.String("reqflow.role_id", role.ID),
	)
	defer span.End()

	rt := agent.NewRuntime()
	rc := agent.Context{
		SessionID: st.session.ID,
		View:      st.collab.Snapshot(),
		Gateway:   o.deps.Gateway,
		Publish:   busPublisher{o: o, st: st},
		Mode:      llmMode(mode),
	}
	return rt.Run(ctx, task, role, rc)
}

// publishTaskUpdate publishes task's own status/progress, then rolls that
// change up into the root task's Progress (the weighted mean of its direct
// children's Progress) so GetSession always reflects current completion.
func (o *Orchestrator) publishTaskUpdate(st *sessionState, task *types.Task) {
	o.publish(st, types.EventKindTaskUpdate, events.TaskUpdatePayload{
		TaskID:   task.ID,
		Name:     task.Name,
		Status:   task.Status,
		Progress: task.Progress,
	})

	if task.ID == st.session.RootTaskID {
		return
	}
	if root := st.recomputeRootProgress(st.session.RootTaskID); root != nil && o.deps.Store != nil {
		_ = o.deps.Store.PutTask(st.scope.Context(), root)
	}
}

func backoffFor(attempt int) time.Duration {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(transientBackoff) {
		idx = len(transientBackoff) - 1
	}
	return transientBackoff[idx]
}
