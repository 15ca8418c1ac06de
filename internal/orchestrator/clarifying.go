package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/reqflow/engine/internal/agent"
	"github.com/reqflow/engine/internal/clarify"
	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/types"
)

// clarifierAnalysis is the shape the Clarifier role's "clarify" sub-step is
// prompted to return: a candidate QualitySnapshot plus candidate questions,
// from which the engine selects the round's actual questions.
type clarifierAnalysis struct {
	Quality   types.QualitySnapshot `json:"quality"`
	Questions []types.Question      `json:"questions"`
}

const clarifierStagingKey = "clarifier.clarify"

// runClarifying drives the clarifying phase to completion: each turn it
// runs the Clarifier role, evaluates the Quality-Driven Clarification
// Engine's gate, and either proceeds, asks the user more questions and
// awaits submit_answer, or fails with ClarificationExhausted. It also
// enforces the session idle timeout while awaiting an answer.
func (o *Orchestrator) runClarifying(st *sessionState) error {
	clarifierRole := o.deps.RoleSpecs["clarifier"]
	idleTimeout := time.Duration(o.deps.Core.IdleTimeoutSeconds) * time.Second

	round := 0
	for {
		round++
		task := &types.Task{
			ID:        types.NewID(),
			SessionID: st.session.ID,
			ParentID:  st.session.RootTaskID,
			Name:      fmt.Sprintf("clarify-round-%d", round),
			Status:    types.StatusIdle,
			Weight:    1,
		}
		st.putTask(task)

		if err := o.runTaskWithRetry(st, clarifierRole, task, st.session.Mode); err != nil {
			return err
		}

		view := st.collab.Snapshot()
		raw, _ := view.Shared[clarifierStagingKey].(string)

		var analysis clarifierAnalysis
		if err := agent.ExtractJSON(raw, &analysis); err != nil {
			return types.Wrap(types.ErrInternal, "clarifier response did not parse", err)
		}

		decision := st.clarify.Evaluate(analysis.Quality, round)

		rec := types.ClarificationRound{
			ID:       types.NewID(),
			Sequence: round,
			Answers:  map[types.ID]string{},
			Quality:  analysis.Quality,
		}

		o.publish(st, types.EventKindQuality, events.QualityPayload{RoundID: rec.ID, Quality: analysis.Quality})

		switch decision {
		case clarify.DecisionProceed:
			rec.Quality.GatePassed = true
			st.mu.Lock()
			st.rounds = append(st.rounds, rec)
			st.mu.Unlock()
			o.persistRound(st, &rec)
			o.publishClarificationLog(st)
			return nil

		case clarify.DecisionExhausted:
			st.mu.Lock()
			st.rounds = append(st.rounds, rec)
			st.mu.Unlock()
			o.persistRound(st, &rec)
			return types.New(types.ErrClarificationExhausted, "quality gate never passed within max rounds and floor")

		default: // DecisionAwaitAnswers
			selected := st.clarify.SelectQuestions(analysis.Quality, analysis.Questions)
			rec.Questions = selected
			st.mu.Lock()
			st.rounds = append(st.rounds, rec)
			st.mu.Unlock()
			o.persistRound(st, &rec)

			o.publish(st, types.EventKindMessage, events.MessagePayload{
				Role:    types.MessageRoleAgent,
				Author:  clarifierRole.ID,
				Kind:    types.MessageKindChat,
				Payload: selected,
			})

			answered, err := o.awaitAnswers(st, idleTimeout)
			if err != nil {
				return err
			}

			accepted := make(map[types.ID]string)
			for qID, text := range answered {
				if !st.clarify.RecordAnswer(rec.ID, qID) {
					accepted[qID] = text
				}
			}
			for qID, text := range accepted {
				rec.Answers[qID] = text
			}
			o.persistRound(st, &rec)

			st.collab.Commit(map[string]any{
				fmt.Sprintf("clarification.round.%d.answers", round): accepted,
			})

			st.mu.Lock()
			st.session.LastActivity = o.deps.Clock.Now()
			st.mu.Unlock()
		}
	}
}

func (o *Orchestrator) awaitAnswers(st *sessionState, idleTimeout time.Duration) (map[types.ID]string, error) {
	select {
	case answers := <-st.answers:
		return answers, nil
	case <-o.deps.Clock.After(idleTimeout):
		return nil, types.New(types.ErrIdleTimeout, "no submit_answer within idle timeout")
	case <-st.scope.Done():
		return nil, types.New(types.ErrCancelled, "session cancelled while awaiting clarification answers")
	}
}

func (o *Orchestrator) persistRound(st *sessionState, round *types.ClarificationRound) {
	if o.deps.Store == nil {
		return
	}
	_ = o.deps.Store.PutClarificationRound(st.scope.Context(), st.session.ID, round)
}

// publishClarificationLog writes a secondary clarification_log.md artifact
// summarizing every round's quality snapshot and question/answer pairs,
// following original_source's clarification_handler.py naming.
func (o *Orchestrator) publishClarificationLog(st *sessionState) {
	if o.deps.Store == nil {
		return
	}

	st.mu.Lock()
	rounds := make([]types.ClarificationRound, len(st.rounds))
	copy(rounds, st.rounds)
	st.mu.Unlock()

	var b strings.Builder
	b.WriteString("# Clarification Log\n\n")
	for _, r := range rounds {
		fmt.Fprintf(&b, "## Round %d\n\n", r.Sequence)
		fmt.Fprintf(&b, "Overall quality: %.2f (gate passed: %t)\n\n", r.Quality.Overall, r.Quality.GatePassed)
		for _, q := range r.Questions {
			fmt.Fprintf(&b, "- Q: %s\n", q.Text)
			if a, ok := r.Answers[q.ID]; ok {
				fmt.Fprintf(&b, "  A: %s\n", a)
			}
		}
		b.WriteString("\n")
	}

	artifact := &types.Artifact{
		ID:          types.NewID(),
		SessionID:   st.session.ID,
		Name:        "clarification_log.md",
		ContentType: "text/markdown",
		Text:        b.String(),
	}
	_ = o.deps.Store.PutArtifact(st.scope.Context(), artifact)
	o.publish(st, types.EventKindMessage, events.MessagePayload{
		Role:   types.MessageRoleAgent,
		Author: "clarifier",
		Kind:   types.MessageKindArtifact,
		Payload: map[string]string{
			"artifact_id": string(artifact.ID),
			"name":        artifact.Name,
		},
	})
}
