package orchestrator

import (
	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/types"
)

// analystSteps enumerates the analyzing phase's four sub-steps; value and
// risk depend on business_process and business_rules having already
// established the process model and rule set they build on.
var analystSteps = []struct {
	name string
	deps []string
}{
	{name: "business_process"},
	{name: "business_rules"},
	{name: "value", deps: []string{"business_process", "business_rules"}},
	{name: "risk", deps: []string{"business_process", "business_rules"}},
}

// drive runs one session through the phase machine end to end:
// clarifying -> analyzing -> documenting -> (reviewing, unless quick mode)
// -> done, with any phase able to fall through to failed. It owns the
// session's terminal event and closes the session's scope once the phase
// machine stops; the session itself stays in the live map.
func (o *Orchestrator) drive(st *sessionState) {
	defer o.finishSession(st)

	if err := o.runClarifying(st); err != nil {
		o.fail(st, err)
		return
	}
	o.transition(st, types.PhaseAnalyzing)

	if err := o.runAnalyzing(st); err != nil {
		o.fail(st, err)
		return
	}

	if err := o.runDocumentingAndReview(st); err != nil {
		o.fail(st, err)
		return
	}

	o.transition(st, types.PhaseDone)
	o.publish(st, types.EventKindTerminal, events.TerminalPayload{Phase: types.PhaseDone})
}

func (o *Orchestrator) runAnalyzing(st *sessionState) error {
	analystRole := o.deps.RoleSpecs["analyst"]
	root, _ := st.task(st.session.RootTaskID)

	specs := make([]subTaskSpec, 0, len(analystSteps))
	for _, step := range analystSteps {
		role := analystRole
		role.SubSteps = []string{step.name}
		specs = append(specs, subTaskSpec{Name: step.name, Role: role, Dependencies: step.deps})
	}

	_, err := o.runPhaseTasks(st, root, specs, st.session.Mode)
	return err
}

// runDocumentingAndReview runs the documenting phase, then the reviewing
// phase unless mode is quick. In deep mode a failed review gate triggers
// one re-documenting pass; the revised document is not reviewed again and
// the session goes on to done. Outside deep mode a failed review gate does
// not change the outcome.
func (o *Orchestrator) runDocumentingAndReview(st *sessionState) error {
	documenterRole := o.deps.RoleSpecs["documenter"]
	reviewerRole := o.deps.RoleSpecs["reviewer"]
	root, _ := st.task(st.session.RootTaskID)

	o.transition(st, types.PhaseDocumenting)
	docTask := &types.Task{
		ID:        types.NewID(),
		SessionID: st.session.ID,
		ParentID:  root.ID,
		Name:      "document",
		Status:    types.StatusIdle,
		Weight:    1,
	}
	st.putTask(docTask)
	if err := o.runTaskWithRetry(st, documenterRole, docTask, st.session.Mode); err != nil {
		return err
	}
	o.publishRequirementsArtifact(st, docTask)

	if st.session.Mode == types.ModeQuick {
		return nil
	}

	o.transition(st, types.PhaseReviewing)
	reviewTask := &types.Task{
		ID:        types.NewID(),
		SessionID: st.session.ID,
		ParentID:  root.ID,
		Name:      "review",
		Status:    types.StatusIdle,
		Weight:    1,
	}
	st.putTask(reviewTask)
	if err := o.runTaskWithRetry(st, reviewerRole, reviewTask, st.session.Mode); err != nil {
		return err
	}

	if reviewTask.Result != nil && reviewTask.Result.Quality.GatePassed {
		return nil
	}

	if st.session.Mode != types.ModeDeep {
		return nil
	}

	o.transition(st, types.PhaseDocumenting)
	redoTask := &types.Task{
		ID:        types.NewID(),
		SessionID: st.session.ID,
		ParentID:  root.ID,
		Name:      "document-revision",
		Status:    types.StatusIdle,
		Weight:    1,
	}
	st.putTask(redoTask)
	if err := o.runTaskWithRetry(st, documenterRole, redoTask, st.session.Mode); err != nil {
		return err
	}
	o.publishRequirementsArtifact(st, redoTask)
	return nil
}

func (o *Orchestrator) publishRequirementsArtifact(st *sessionState, docTask *types.Task) {
	if docTask.Result == nil || o.deps.Store == nil {
		return
	}
	artifact := &types.Artifact{
		ID:              types.NewID(),
		SessionID:       st.session.ID,
		Name:            "requirements_spec.md",
		ContentType:     "text/markdown",
		Text:            docTask.Result.Content,
		ProducingTaskID: docTask.ID,
	}
	_ = o.deps.Store.PutArtifact(st.scope.Context(), artifact)
	o.publish(st, types.EventKindMessage, events.MessagePayload{
		Role:   types.MessageRoleAgent,
		Author: "documenter",
		Kind:   types.MessageKindArtifact,
		Payload: map[string]string{
			"artifact_id": string(artifact.ID),
			"name":        artifact.Name,
		},
	})
}

func (o *Orchestrator) transition(st *sessionState, phase types.Phase) {
	st.mu.Lock()
	st.session.Phase = phase
	st.session.UpdatedAt = o.deps.Clock.Now()
	st.mu.Unlock()
	if o.deps.Store != nil {
		st.mu.Lock()
		sessCopy := *st.session
		st.mu.Unlock()
		_ = o.deps.Store.PutSession(st.scope.Context(), &sessCopy)
	}
	o.publish(st, types.EventKindPhase, events.PhasePayload{Phase: phase})
}

func (o *Orchestrator) fail(st *sessionState, err error) {
	code := types.CodeOf(err)
	st.mu.Lock()
	st.session.Phase = types.PhaseFailed
	st.session.FailureReason = code
	st.session.UpdatedAt = o.deps.Clock.Now()
	st.mu.Unlock()
	if o.deps.Store != nil {
		st.mu.Lock()
		sessCopy := *st.session
		st.mu.Unlock()
		_ = o.deps.Store.PutSession(st.scope.Context(), &sessCopy)
	}
	o.log.Warn("session failed", "session_id", st.session.ID, "code", code, "err", err)
	o.publish(st, types.EventKindTerminal, events.TerminalPayload{
		Phase: types.PhaseFailed,
		Error: &events.TerminalError{Kind: code, Message: err.Error()},
	})
}

// finishSession closes the session's cancellation scope once the phase
// machine stops. The session stays in the live map, still queryable via
// GetSession/Subscribe, for the life of the process: nothing removes it
// (the stale-session reaper only updates stored records). Only
// non-terminal sessions count against max_sessions.
func (o *Orchestrator) finishSession(st *sessionState) {
	st.scope.Cancel(nil)
}
