package clarify

import "github.com/reqflow/engine/internal/types"

// GatePassed reports whether snap clears the quality gate: overall score at
// or above cfg.GateOverall and every critical dimension at or above
// cfg.GateCritical. Both bounds are inclusive — an overall of exactly 0.8
// with all critical dimensions at exactly 0.7 passes.
func GatePassed(cfg Config, snap types.QualitySnapshot) bool {
	if snap.Overall < cfg.GateOverall {
		return false
	}
	for _, dim := range types.CriticalDimensions {
		if snap.Dimension(dim).Score < cfg.GateCritical {
			return false
		}
	}
	return true
}

// Decision is what the orchestrator should do after evaluating a
// clarification round's quality snapshot.
type Decision int

const (
	// DecisionAwaitAnswers means the gate failed and rounds remain; the
	// orchestrator should publish questions and wait for submit_answer.
	DecisionAwaitAnswers Decision = iota
	// DecisionProceed means the session should transition clarifying ->
	// analyzing, either because the gate passed or because the round/
	// early-stop floor was met.
	DecisionProceed
	// DecisionExhausted means max rounds were hit without reaching the
	// floor overall score; the session fails with ClarificationExhausted.
	DecisionExhausted
)

// Next decides the outcome of one clarification turn. roundNumber is
// 1-indexed (the round just evaluated); history holds the overall scores of
// all rounds evaluated so far, most recent last, including the current one.
func Next(cfg Config, snap types.QualitySnapshot, roundNumber int, history []float64) Decision {
	if GatePassed(cfg, snap) {
		return DecisionProceed
	}

	if roundNumber >= cfg.MaxRounds {
		if snap.Overall >= cfg.FloorOverall {
			return DecisionProceed
		}
		return DecisionExhausted
	}

	if earlyStop(cfg, snap, history) {
		return DecisionProceed
	}

	return DecisionAwaitAnswers
}

// earlyStop reports whether overall quality changed by less than
// cfg.EarlyStopEpsilon (in either direction) over the last two rounds,
// while the floor is already met. It never
// overrides the hard gate or the floor — it only shortens the dialogue.
func earlyStop(cfg Config, snap types.QualitySnapshot, history []float64) bool {
	if snap.Overall < cfg.FloorOverall {
		return false
	}
	if len(history) < 2 {
		return false
	}
	prev := history[len(history)-2]
	delta := snap.Overall - prev
	if delta < 0 {
		delta = -delta
	}
	return delta < cfg.EarlyStopEpsilon
}
