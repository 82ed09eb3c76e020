package risk

import (
	"context"
	"time"

	"remora/internal/domain/riskcontext"
	"remora/internal/metrics"
	"remora/pkg/errors"
	"remora/pkg/logger"
)

// FailurePolicy converts a failed context refresh into a usable
// RiskContext. It always succeeds: trading is never blocked on an
// upstream outage. The classified error is recorded for operators but
// never raised past this point.
type FailurePolicy struct {
	staleLimit time.Duration
	tracker    errors.Tracker
	log        *logger.Logger
}

// NewFailurePolicy creates a fail-open policy. The stale limit bounds
// how long a cached context stays preferable to the default value.
func NewFailurePolicy(staleLimit time.Duration, tracker errors.Tracker) *FailurePolicy {
	return &FailurePolicy{
		staleLimit: staleLimit,
		tracker:    tracker,
		log:        logger.Get().With("component", "failure_policy"),
	}
}

// Resolve picks the fallback for a failed refresh:
// a previous context still inside the stale-but-usable window is
// served retagged stale_cache, anything else degrades to the default.
func (p *FailurePolicy) Resolve(ctx context.Context, symbol string, fetchErr error, prev *riskcontext.RiskContext, now time.Time) riskcontext.RiskContext {
	reason := errors.Classify(fetchErr)

	if p.tracker != nil && fetchErr != nil {
		p.tracker.CaptureError(ctx, fetchErr, map[string]string{
			"symbol":         symbol,
			"classification": reason,
		})
	}

	if prev != nil && now.Sub(prev.RetrievedAt) < p.staleLimit {
		p.log.Warn("Serving stale risk context",
			"symbol", symbol,
			"reason", reason,
			"age", now.Sub(prev.RetrievedAt).String(),
		)
		metrics.RecordFallback(riskcontext.OriginStaleCache.String(), reason)
		return prev.AsStale()
	}

	p.log.Warn("Serving default risk context",
		"symbol", symbol,
		"reason", reason,
	)
	metrics.RecordFallback(riskcontext.OriginDefault.String(), reason)
	return riskcontext.DefaultContext(symbol, now)
}
