package workers

import (
	"context"
	"time"

	"remora/internal/adapters/ratelimit"
	"remora/internal/metrics"
	"remora/internal/risk"
)

// RefreshWorker warms the context cache for a configured watchlist so
// that trade-time lookups hit fresh entries instead of paying fetch
// latency on the hot path. It also exports the limiter's remaining
// token budget as a gauge.
type RefreshWorker struct {
	*BaseWorker
	cache   *risk.ContextCache
	limiter *ratelimit.Limiter
	symbols []string

	// strict makes a degraded refresh fail the run instead of only
	// being logged, mirroring the strict lookup mode
	strict bool
}

// NewRefreshWorker creates a cache refresh worker for the given symbols
func NewRefreshWorker(cache *risk.ContextCache, limiter *ratelimit.Limiter, symbols []string, interval time.Duration, enabled bool, strict bool) *RefreshWorker {
	return &RefreshWorker{
		BaseWorker: NewBaseWorker("context_refresh", interval, enabled),
		cache:      cache,
		limiter:    limiter,
		symbols:    symbols,
		strict:     strict,
	}
}

// Run refreshes the risk context for every watched symbol
func (w *RefreshWorker) Run(ctx context.Context) error {
	log := w.Log()
	log.Debug("Refreshing risk contexts", "symbols", len(w.symbols))

	var lastErr error
	refreshed := 0

	for _, symbol := range w.symbols {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := w.cache.GetStrict(ctx, symbol); err != nil {
			// Degraded lookups are already resolved inside the cache;
			// record the failure but keep warming the rest of the list.
			log.Warn("Context refresh degraded", "symbol", symbol, "error", err)
			lastErr = err
			continue
		}
		refreshed++
	}

	if w.limiter != nil {
		metrics.RateBudgetTokens.WithLabelValues(string(w.limiter.Tier())).Set(w.limiter.Tokens(time.Now()))
	}

	log.Info("Risk contexts refreshed",
		"refreshed", refreshed,
		"total", len(w.symbols),
	)

	if lastErr != nil && w.strict {
		w.RecordError(lastErr)
		return lastErr
	}

	w.RecordRun()
	return nil
}
