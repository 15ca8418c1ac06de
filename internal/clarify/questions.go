package clarify

import (
	"sort"

	"github.com/reqflow/engine/internal/types"
)

// SelectQuestions picks which of the Clarifier's candidate questions to put
// to the user this round: lowest-scoring dimensions first, capped at
// cfg.MaxQuestionsPerRound overall and cfg.HighPriorityCap `high`-priority
// questions. candidates are grouped by Category (the dimension name they
// address); within a dimension, candidate order is preserved.
func SelectQuestions(cfg Config, snap types.QualitySnapshot, candidates []types.Question) []types.Question {
	order := rankDimensionsByScore(snap)

	byDim := make(map[types.QualityDimension][]types.Question, len(order))
	for _, q := range candidates {
		dim := types.QualityDimension(q.Category)
		byDim[dim] = append(byDim[dim], q)
	}

	selected := make([]types.Question, 0, cfg.MaxQuestionsPerRound)
	highCount := 0

	for _, dim := range order {
		if len(selected) >= cfg.MaxQuestionsPerRound {
			break
		}
		for _, q := range byDim[dim] {
			if len(selected) >= cfg.MaxQuestionsPerRound {
				break
			}
			if q.Priority == types.PriorityHigh && highCount >= cfg.HighPriorityCap {
				continue
			}
			selected = append(selected, q)
			if q.Priority == types.PriorityHigh {
				highCount++
			}
		}
	}

	return selected
}

// rankDimensionsByScore orders all eight dimensions ascending by score, so
// the lowest-scoring (most deficient) dimension is considered first.
func rankDimensionsByScore(snap types.QualitySnapshot) []types.QualityDimension {
	dims := make([]types.QualityDimension, len(types.AllDimensions))
	copy(dims, types.AllDimensions)

	sort.SliceStable(dims, func(i, j int) bool {
		return snap.Dimension(dims[i]).Score < snap.Dimension(dims[j]).Score
	})
	return dims
}
