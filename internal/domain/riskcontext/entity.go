package riskcontext

import "time"

// RiskContext is the validated market risk assessment for one trading pair.
// Instances are immutable once constructed and safe to share across
// goroutines without synchronization.
type RiskContext struct {
	Symbol      string
	SafeToTrade bool
	RiskScore   float64 // always within [0, 1]
	Reasoning   []string
	Regime      string // optional upstream market classification
	RetrievedAt time.Time
	Origin      Origin
}

// Origin records where a risk context came from
type Origin string

const (
	// OriginLive is a context freshly fetched from the upstream API
	OriginLive Origin = "live"

	// OriginStaleCache is a cached context past its TTL but still usable
	OriginStaleCache Origin = "stale_cache"

	// OriginDefault is the fail-open value used when nothing better exists
	OriginDefault Origin = "default"
)

// Valid checks if origin is valid
func (o Origin) Valid() bool {
	switch o {
	case OriginLive, OriginStaleCache, OriginDefault:
		return true
	}
	return false
}

// String returns string representation
func (o Origin) String() string {
	return string(o)
}

// DefaultContext returns the fail-open context used when the upstream
// signal is unavailable and no usable cached value exists.
// Origin=default always carries SafeToTrade=true and RiskScore=0.
func DefaultContext(symbol string, now time.Time) RiskContext {
	return RiskContext{
		Symbol:      symbol,
		SafeToTrade: true,
		RiskScore:   0.0,
		Reasoning:   nil,
		RetrievedAt: now,
		Origin:      OriginDefault,
	}
}

// AsStale returns a copy of the context retagged as served from stale cache.
// The retrieval timestamp is preserved so age stays measurable.
func (rc RiskContext) AsStale() RiskContext {
	rc.Origin = OriginStaleCache
	return rc
}

// Age returns how long ago the context was retrieved
func (rc RiskContext) Age(now time.Time) time.Duration {
	return now.Sub(rc.RetrievedAt)
}

// ClampScore forces a risk score into the valid [0, 1] range
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
