package types

// QualityDimension names one of the eight axes the Quality-Driven
// Clarification Engine scores a requirement against every clarification
// turn.
type QualityDimension string

const (
	DimFunctional          QualityDimension = "functional"
	DimNonFunctional       QualityDimension = "non_functional"
	DimUserRoles           QualityDimension = "user_roles"
	DimBusinessRules       QualityDimension = "business_rules"
	DimConstraints         QualityDimension = "constraints"
	DimAcceptanceCriteria  QualityDimension = "acceptance_criteria"
	DimIntegration         QualityDimension = "integration"
	DimData                QualityDimension = "data"
)

// AllDimensions lists the eight dimensions in the fixed order used to
// render a QualitySnapshot.
var AllDimensions = []QualityDimension{
	DimFunctional, DimNonFunctional, DimUserRoles, DimBusinessRules,
	DimConstraints, DimAcceptanceCriteria, DimIntegration, DimData,
}

// CriticalDimensions are the dimensions the gate also floors individually,
// in addition to the overall score.
var CriticalDimensions = []QualityDimension{
	DimFunctional, DimAcceptanceCriteria, DimUserRoles,
}

// DimensionScore is one dimension's contribution to a QualitySnapshot.
type DimensionScore struct {
	Dimension QualityDimension `json:"dimension"`
	Score     float64          `json:"score"`

	// MissingAspects are facets of the requirement this dimension found
	// absent or underspecified.
	MissingAspects []string `json:"missing_aspects,omitempty"`

	// Suggestions are improvement hints attached per dimension, carried
	// through to the clarifying question's rationale.
	Suggestions []string `json:"suggestions,omitempty"`
}

// QualitySnapshot is the immutable result of one clarification turn's
// quality evaluation: eight dimension scores, an overall score, and
// whether the gate passed.
type QualitySnapshot struct {
	Dimensions []DimensionScore `json:"dimensions"`
	Overall    float64          `json:"overall"`
	GatePassed bool             `json:"gate_passed"`
}

// Dimension looks up a single dimension's score, returning the zero value
// if the snapshot does not carry it.
func (q *QualitySnapshot) Dimension(d QualityDimension) DimensionScore {
	for _, ds := range q.Dimensions {
		if ds.Dimension == d {
			return ds
		}
	}
	return DimensionScore{Dimension: d}
}

// Question is one clarifying question put to the user in a round.
type Question struct {
	ID       ID       `json:"id"`
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Priority Priority `json:"priority"`
}

// ClarificationRound is one question/answer turn in the clarifying phase.
// Rounds are appended as the dialogue progresses and are never mutated
// retroactively; a round's Answers map fills in as submit_answer calls
// arrive, but existing entries are never overwritten (idempotent resubmit).
type ClarificationRound struct {
	ID       ID  `json:"id"`
	Sequence int `json:"sequence"`

	Questions []Question        `json:"questions"`
	Answers   map[ID]string     `json:"answers"`

	Quality QualitySnapshot `json:"quality"`
}

// AnswerKey identifies one (round, question) answer for idempotent
// resubmission tracking, mirroring the original clarification handler's
// (round_id, question_id) keying.
type AnswerKey struct {
	RoundID    ID
	QuestionID ID
}
