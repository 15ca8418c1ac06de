package clarify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reqflow/engine/internal/types"
)

func TestSelectQuestions_PrefersLowestScoringDimensions(t *testing.T) {
	cfg := DefaultConfig()
	snap := types.QualitySnapshot{Dimensions: []types.DimensionScore{
		{Dimension: types.DimFunctional, Score: 0.2},
		{Dimension: types.DimData, Score: 0.9},
	}}
	candidates := []types.Question{
		{ID: "q-data", Category: string(types.DimData), Priority: types.PriorityLow},
		{ID: "q-func", Category: string(types.DimFunctional), Priority: types.PriorityLow},
	}

	selected := SelectQuestions(cfg, snap, candidates)
	assert.Equal(t, types.ID("q-func"), selected[0].ID)
}

func TestSelectQuestions_CapsHighPriorityPerRound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQuestionsPerRound = 10
	snap := types.QualitySnapshot{}

	candidates := make([]types.Question, 0, 5)
	for i := 0; i < 5; i++ {
		candidates = append(candidates, types.Question{
			ID:       types.NewID(),
			Category: string(types.DimFunctional),
			Priority: types.PriorityHigh,
		})
	}

	selected := SelectQuestions(cfg, snap, candidates)
	assert.Len(t, selected, cfg.HighPriorityCap)
}

func TestSelectQuestions_CapsTotalAtMaxQuestionsPerRound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HighPriorityCap = 10
	snap := types.QualitySnapshot{}

	candidates := make([]types.Question, 0, 10)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, types.Question{
			ID:       types.NewID(),
			Category: string(types.DimFunctional),
			Priority: types.PriorityMedium,
		})
	}

	selected := SelectQuestions(cfg, snap, candidates)
	assert.Len(t, selected, cfg.MaxQuestionsPerRound)
}
