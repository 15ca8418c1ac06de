package clarify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reqflow/engine/internal/types"
)

func snapshotWith(overall float64, critical float64) types.QualitySnapshot {
	dims := make([]types.DimensionScore, 0, len(types.AllDimensions))
	for _, d := range types.AllDimensions {
		score := 0.9
		for _, c := range types.CriticalDimensions {
			if d == c {
				score = critical
			}
		}
		dims = append(dims, types.DimensionScore{Dimension: d, Score: score})
	}
	return types.QualitySnapshot{Dimensions: dims, Overall: overall}
}

func TestGatePassed_BoundaryInclusive(t *testing.T) {
	cfg := DefaultConfig()
	snap := snapshotWith(0.8, 0.7)
	assert.True(t, GatePassed(cfg, snap))
}

func TestGatePassed_FailsBelowCriticalFloor(t *testing.T) {
	cfg := DefaultConfig()
	snap := snapshotWith(0.9, 0.69)
	assert.False(t, GatePassed(cfg, snap))
}

func TestGatePassed_FailsBelowOverall(t *testing.T) {
	cfg := DefaultConfig()
	snap := snapshotWith(0.79, 0.9)
	assert.False(t, GatePassed(cfg, snap))
}

func TestNext_ProceedsOnGatePass(t *testing.T) {
	cfg := DefaultConfig()
	snap := snapshotWith(0.85, 0.8)
	assert.Equal(t, DecisionProceed, Next(cfg, snap, 1, []float64{0.85}))
}

func TestNext_MaxRoundsAtFloorProceeds(t *testing.T) {
	cfg := DefaultConfig()
	snap := snapshotWith(0.6, 0.5)
	assert.Equal(t, DecisionProceed, Next(cfg, snap, cfg.MaxRounds, []float64{0.6}))
}

func TestNext_MaxRoundsBelowFloorExhausted(t *testing.T) {
	cfg := DefaultConfig()
	snap := snapshotWith(0.59, 0.5)
	assert.Equal(t, DecisionExhausted, Next(cfg, snap, cfg.MaxRounds, []float64{0.59}))
}

func TestNext_EarlyStopOnDiminishingReturns(t *testing.T) {
	cfg := DefaultConfig()
	snap := snapshotWith(0.65, 0.5)
	history := []float64{0.64, 0.65}
	assert.Equal(t, DecisionProceed, Next(cfg, snap, 3, history))
}

func TestNext_AwaitsAnswersWhenGateFailsAndRoundsRemain(t *testing.T) {
	cfg := DefaultConfig()
	snap := snapshotWith(0.5, 0.4)
	assert.Equal(t, DecisionAwaitAnswers, Next(cfg, snap, 1, []float64{0.5}))
}
