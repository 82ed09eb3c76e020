package risk

import (
	"remora/internal/domain/riskcontext"
	"remora/internal/metrics"
)

// Thresholds are the tunable inputs of the decision engine. They come
// from configuration so strategies can adjust sensitivity without
// touching the engine itself.
type Thresholds struct {
	// HighBlockThreshold blocks entries at or above this risk score
	HighBlockThreshold float64

	// MinMultiplier is the floor of the stake multiplier
	MinMultiplier float64

	// BlockOnUnsafe makes safe_to_trade=false block entries on its own.
	// The source documentation gates on the flag in some places and on
	// the score in others; both gates are kept independent here.
	BlockOnUnsafe bool
}

// DefaultThresholds returns the documented defaults
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighBlockThreshold: 0.7,
		MinMultiplier:      0.3,
		BlockOnUnsafe:      true,
	}
}

// DecisionEngine maps a risk context to a trading decision.
// Deterministic, no I/O.
type DecisionEngine struct {
	thresholds Thresholds
}

// NewDecisionEngine creates a decision engine with the given thresholds
func NewDecisionEngine(th Thresholds) *DecisionEngine {
	if th.HighBlockThreshold <= 0 {
		th.HighBlockThreshold = 0.7
	}
	if th.MinMultiplier <= 0 {
		th.MinMultiplier = 0.3
	}
	return &DecisionEngine{thresholds: th}
}

// Decide produces the trading decision for a context
func (e *DecisionEngine) Decide(rc riskcontext.RiskContext) riskcontext.DecisionResult {
	return Decide(rc, e.thresholds)
}

// Decide maps a risk context to a decision under the given thresholds.
//
// Entry is gated by two independent conditions: the upstream
// safe_to_trade flag (when BlockOnUnsafe is set) and the score
// threshold. The stake multiplier scales down linearly with risk and
// never drops below the floor, so it is non-increasing in risk_score.
func Decide(rc riskcontext.RiskContext, th Thresholds) riskcontext.DecisionResult {
	band := riskcontext.BandOf(rc.RiskScore)

	allowed := true
	if th.BlockOnUnsafe && !rc.SafeToTrade {
		allowed = false
	}
	if rc.RiskScore >= th.HighBlockThreshold {
		allowed = false
	}

	multiplier := 1.0 - rc.RiskScore
	if multiplier < th.MinMultiplier {
		multiplier = th.MinMultiplier
	}
	if multiplier > 1.0 {
		multiplier = 1.0
	}

	metrics.RecordDecision(band.String(), allowed)

	return riskcontext.DecisionResult{
		EntryAllowed:    allowed,
		StakeMultiplier: multiplier,
		RiskBand:        band,
		Reasoning:       rc.Reasoning,
	}
}
