package clarify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reqflow/engine/internal/types"
)

func TestEngine_RecordAnswer_IdempotentResubmission(t *testing.T) {
	e := New(DefaultConfig())
	roundID, questionID := types.NewID(), types.NewID()

	assert.False(t, e.RecordAnswer(roundID, questionID))
	assert.True(t, e.RecordAnswer(roundID, questionID))
}

func TestEngine_Evaluate_TracksHistoryAcrossRounds(t *testing.T) {
	e := New(DefaultConfig())
	snap := snapshotWith(0.5, 0.4)

	decision := e.Evaluate(snap, 1)
	assert.Equal(t, DecisionAwaitAnswers, decision)

	passing := snapshotWith(0.85, 0.8)
	decision = e.Evaluate(passing, 2)
	assert.Equal(t, DecisionProceed, decision)
}
