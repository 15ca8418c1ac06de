package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/reqflow/engine/internal/llm"
	"github.com/reqflow/engine/internal/types"
)

const defaultThreshold = 0.7

// rubricDimensions lists the six ReflectScore axes in the fixed order used
// for equal-weight fallback and prompt rendering.
var rubricDimensions = []string{
	"completeness", "accuracy", "professionalism", "clarity", "actionability", "innovation",
}

type rubricScores struct {
	Completeness    float64 `json:"completeness"`
	Accuracy        float64 `json:"accuracy"`
	Professionalism float64 `json:"professionalism"`
	Clarity         float64 `json:"clarity"`
	Actionability   float64 `json:"actionability"`
	Innovation      float64 `json:"innovation"`
}

// reflect scores the staged Act output against role's quality rubric,
// calling the Gateway in quick mode for the self-evaluation. Parse failure
// is treated as a full-zero rubric rather than retried; the cycle-level
// retry (discard staging, re-run Think->Act->Reflect) already covers it.
func reflect(ctx context.Context, gw Generator, role types.RoleSpec, staged map[string]any) (types.ReflectScore, error) {
	prompt := reflectPrompt(role, staged)
	text, err := gw.Generate(ctx, prompt, llm.ModeQuick)
	if err != nil {
		return types.ReflectScore{}, err
	}

	var rs rubricScores
	_ = extractJSON(text, &rs) // best-effort; a zero rubric just fails the gate

	score := types.ReflectScore{
		Completeness:    rs.Completeness,
		Accuracy:        rs.Accuracy,
		Professionalism: rs.Professionalism,
		Clarity:         rs.Clarity,
		Actionability:   rs.Actionability,
		Innovation:      rs.Innovation,
	}
	score.Overall = weightedMean(role.QualityWeights, score)

	threshold := role.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}
	score.GatePassed = score.Overall >= threshold
	return score, nil
}

func weightedMean(weights map[string]float64, s types.ReflectScore) float64 {
	values := map[string]float64{
		"completeness":    s.Completeness,
		"accuracy":        s.Accuracy,
		"professionalism": s.Professionalism,
		"clarity":         s.Clarity,
		"actionability":   s.Actionability,
		"innovation":      s.Innovation,
	}

	if len(weights) == 0 {
		var sum float64
		for _, d := range rubricDimensions {
			sum += values[d]
		}
		return sum / float64(len(rubricDimensions))
	}

	var weightedSum, totalWeight float64
	for _, d := range rubricDimensions {
		w, ok := weights[d]
		if !ok {
			w = 1
		}
		weightedSum += values[d] * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

func reflectPrompt(role types.RoleSpec, staged map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score the following %s output against the rubric (%s), each 0.0-1.0.\n", role.Name, strings.Join(rubricDimensions, ", "))
	for k, v := range staged {
		fmt.Fprintf(&b, "- %s: %v\n", k, v)
	}
	b.WriteString("Respond with a single JSON object: {\"completeness\":0.0,\"accuracy\":0.0,\"professionalism\":0.0,\"clarity\":0.0,\"actionability\":0.0,\"innovation\":0.0}")
	return b.String()
}
