package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"remora/internal/domain/riskcontext"
)

func testNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func TestDecide_Bands(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		band       riskcontext.RiskBand
		allowed    bool
		multiplier float64
	}{
		{name: "calm market", score: 0.1, band: riskcontext.BandLow, allowed: true, multiplier: 0.9},
		{name: "low band upper edge", score: 0.29, band: riskcontext.BandLow, allowed: true, multiplier: 0.71},
		{name: "moderate band lower edge", score: 0.3, band: riskcontext.BandModerate, allowed: true, multiplier: 0.7},
		{name: "mid moderate", score: 0.5, band: riskcontext.BandModerate, allowed: true, multiplier: 0.5},
		{name: "high band lower edge", score: 0.6, band: riskcontext.BandHigh, allowed: true, multiplier: 0.4},
		{name: "just below block threshold", score: 0.69, band: riskcontext.BandHigh, allowed: true, multiplier: 0.31},
		{name: "at block threshold", score: 0.7, band: riskcontext.BandHigh, allowed: false, multiplier: 0.3},
		{name: "extreme risk", score: 0.95, band: riskcontext.BandHigh, allowed: false, multiplier: 0.3},
		{name: "zero risk", score: 0.0, band: riskcontext.BandLow, allowed: true, multiplier: 1.0},
		{name: "maximum risk", score: 1.0, band: riskcontext.BandHigh, allowed: false, multiplier: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := riskcontext.RiskContext{
				Symbol:      "BTCUSDT",
				SafeToTrade: true,
				RiskScore:   tt.score,
				Origin:      riskcontext.OriginLive,
			}

			result := Decide(rc, DefaultThresholds())
			assert.Equal(t, tt.band, result.RiskBand)
			assert.Equal(t, tt.allowed, result.EntryAllowed)
			assert.InDelta(t, tt.multiplier, result.StakeMultiplier, 1e-9)
		})
	}
}

func TestDecide_UnsafeFlagBlocks(t *testing.T) {
	rc := riskcontext.RiskContext{
		Symbol:      "BTCUSDT",
		SafeToTrade: false,
		RiskScore:   0.1, // low score does not rescue an unsafe flag
		Reasoning:   []string{"exchange maintenance window"},
		Origin:      riskcontext.OriginLive,
	}

	result := Decide(rc, DefaultThresholds())
	assert.False(t, result.EntryAllowed)
	assert.Equal(t, riskcontext.BandLow, result.RiskBand)
	assert.Equal(t, rc.Reasoning, result.Reasoning)
}

func TestDecide_UnsafeGateConfigurable(t *testing.T) {
	rc := riskcontext.RiskContext{
		Symbol:      "BTCUSDT",
		SafeToTrade: false,
		RiskScore:   0.2,
		Origin:      riskcontext.OriginLive,
	}

	th := DefaultThresholds()
	th.BlockOnUnsafe = false

	// With the flag gate off only the score threshold applies
	result := Decide(rc, th)
	assert.True(t, result.EntryAllowed)
}

func TestDecide_MultiplierMonotonic(t *testing.T) {
	th := DefaultThresholds()
	prev := 1.1

	for score := 0.0; score <= 1.0; score += 0.05 {
		rc := riskcontext.RiskContext{SafeToTrade: true, RiskScore: score}
		result := Decide(rc, th)

		assert.LessOrEqual(t, result.StakeMultiplier, prev,
			"multiplier must not increase with risk (score=%.2f)", score)
		assert.GreaterOrEqual(t, result.StakeMultiplier, th.MinMultiplier)
		assert.LessOrEqual(t, result.StakeMultiplier, 1.0)
		prev = result.StakeMultiplier
	}
}

func TestDecide_DefaultContextAllowsFullStake(t *testing.T) {
	// The fail-open default must never block trading
	rc := riskcontext.DefaultContext("BTCUSDT", testNow())

	result := Decide(rc, DefaultThresholds())
	assert.True(t, result.EntryAllowed)
	assert.Equal(t, 1.0, result.StakeMultiplier)
	assert.Equal(t, riskcontext.BandLow, result.RiskBand)
}

func TestDecide_CustomThreshold(t *testing.T) {
	rc := riskcontext.RiskContext{SafeToTrade: true, RiskScore: 0.5}

	conservative := Thresholds{HighBlockThreshold: 0.4, MinMultiplier: 0.3, BlockOnUnsafe: true}
	assert.False(t, Decide(rc, conservative).EntryAllowed)

	permissive := Thresholds{HighBlockThreshold: 0.9, MinMultiplier: 0.3, BlockOnUnsafe: true}
	assert.True(t, Decide(rc, permissive).EntryAllowed)
}

func TestNewDecisionEngine_Defaults(t *testing.T) {
	engine := NewDecisionEngine(Thresholds{})

	rc := riskcontext.RiskContext{SafeToTrade: true, RiskScore: 0.75}
	result := engine.Decide(rc)
	assert.False(t, result.EntryAllowed, "zero-value thresholds fall back to the documented defaults")
	assert.InDelta(t, 0.3, result.StakeMultiplier, 1e-9)
}
