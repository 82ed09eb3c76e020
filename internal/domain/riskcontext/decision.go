package riskcontext

// DecisionResult is the trading decision derived from a risk context.
// It is computed on demand and never stored or revised after being
// handed to a caller.
type DecisionResult struct {
	EntryAllowed    bool
	StakeMultiplier float64 // within [MinMultiplier, 1.0]
	RiskBand        RiskBand
	Reasoning       []string // passthrough from the source context
}

// RiskBand buckets a risk score for coarse-grained gating and reporting
type RiskBand string

const (
	BandLow      RiskBand = "low"      // risk_score < 0.3
	BandModerate RiskBand = "moderate" // 0.3 <= risk_score < 0.6
	BandHigh     RiskBand = "high"     // risk_score >= 0.6
)

// Valid checks if risk band is valid
func (b RiskBand) Valid() bool {
	switch b {
	case BandLow, BandModerate, BandHigh:
		return true
	}
	return false
}

// String returns string representation
func (b RiskBand) String() string {
	return string(b)
}

// BandOf maps a risk score to its band
func BandOf(score float64) RiskBand {
	switch {
	case score < 0.3:
		return BandLow
	case score < 0.6:
		return BandModerate
	default:
		return BandHigh
	}
}
