package orchestrator

import (
	"context"
	"time"

	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/types"
)

// ReapStaleSessions sweeps the Store for non-terminal sessions whose last
// activity predates stale_threshold and marks them failed(StaleSession).
// Call it once on process startup, before Start accepts new sessions, to
// recover sessions orphaned by a prior crash; live in-process sessions are
// never reaped this way since their drive goroutine owns their lifecycle.
func (o *Orchestrator) ReapStaleSessions(ctx context.Context) (int, error) {
	if o.deps.Store == nil {
		return 0, nil
	}

	threshold := o.deps.Config.StaleThreshold
	if threshold <= 0 {
		threshold = 15 * time.Minute
	}

	sessions, err := o.deps.Store.ListActiveSessions(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := o.deps.Clock.Now().Add(-threshold)
	reaped := 0
	for _, sess := range sessions {
		if sess.LastActivity.After(cutoff) {
			continue
		}
		sess.Phase = types.PhaseFailed
		sess.FailureReason = types.ErrStaleSession
		sess.UpdatedAt = o.deps.Clock.Now()
		if err := o.deps.Store.PutSession(ctx, sess); err != nil {
			return reaped, err
		}
		if o.deps.Events != nil {
			e := o.deps.Events.Publish(sess.ID, types.EventKindTerminal, events.TerminalPayload{
				Phase: types.PhaseFailed,
				Error: &events.TerminalError{Kind: types.ErrStaleSession, Message: "session exceeded stale_threshold with no activity"},
			})
			_ = o.deps.Store.AppendEvent(ctx, e)
		}
		o.log.Info("reaped stale session", "session_id", sess.ID, "last_activity", sess.LastActivity)
		reaped++
	}
	return reaped, nil
}
