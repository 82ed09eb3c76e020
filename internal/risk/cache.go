package risk

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"remora/internal/adapters/ratelimit"
	"remora/internal/domain/riskcontext"
	"remora/internal/metrics"
	"remora/pkg/errors"
	"remora/pkg/logger"
)

const (
	// DefaultTTL is the normal freshness window of a cached context
	DefaultTTL = 60 * time.Second

	// DefaultStaleLimit bounds the stale-but-usable window (5x TTL)
	DefaultStaleLimit = 300 * time.Second

	shardCount = 16
)

// Fetcher performs one upstream fetch for a symbol
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (riskcontext.RiskContext, error)
}

// RateGate grants or denies permission for one outbound request
type RateGate interface {
	Acquire(now time.Time) ratelimit.Outcome
}

// CacheConfig configures the context cache freshness policy
type CacheConfig struct {
	TTL        time.Duration
	StaleLimit time.Duration
}

// ContextCache is the single entry point for risk context lookups.
// It keeps the most recent context per symbol, refreshes through the
// rate limiter when an entry goes stale, and falls back through the
// failure policy so Get never fails.
//
// Entries are sharded by symbol so lookups for distinct symbols do not
// contend; a per-entry lock serializes refreshes for the same symbol,
// so a second concurrent caller observes the entry the first one wrote.
type ContextCache struct {
	fetcher Fetcher
	limiter RateGate
	policy  *FailurePolicy

	ttl        time.Duration
	staleLimit time.Duration

	now func() time.Time
	log *logger.Logger

	shards [shardCount]cacheShard
}

type cacheShard struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	mu        sync.Mutex
	value     riskcontext.RiskContext
	fetchedAt time.Time
	has       bool
}

// NewContextCache creates a context cache
func NewContextCache(fetcher Fetcher, limiter RateGate, policy *FailurePolicy, cfg CacheConfig) *ContextCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.StaleLimit <= 0 {
		cfg.StaleLimit = DefaultStaleLimit
	}
	if cfg.StaleLimit < cfg.TTL {
		cfg.StaleLimit = cfg.TTL
	}

	c := &ContextCache{
		fetcher:    fetcher,
		limiter:    limiter,
		policy:     policy,
		ttl:        cfg.TTL,
		staleLimit: cfg.StaleLimit,
		now:        time.Now,
		log:        logger.Get().With("component", "context_cache"),
	}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]*cacheEntry)
	}
	return c
}

// Get returns the risk context for a symbol. It never fails: a refresh
// failure degrades through the failure policy to a stale or default
// context.
func (c *ContextCache) Get(ctx context.Context, symbol string) riskcontext.RiskContext {
	rc, _ := c.lookup(ctx, symbol)
	return rc
}

// GetStrict is the opt-in strict mode: the returned context follows the
// same fail-open rules as Get, but the classified refresh error (if
// any) is surfaced alongside it.
func (c *ContextCache) GetStrict(ctx context.Context, symbol string) (riskcontext.RiskContext, error) {
	return c.lookup(ctx, symbol)
}

func (c *ContextCache) lookup(ctx context.Context, symbol string) (riskcontext.RiskContext, error) {
	shard := c.shard(symbol)

	shard.mu.Lock()
	entry, ok := shard.entries[symbol]
	if !ok {
		entry = &cacheEntry{}
		shard.entries[symbol] = entry
	}
	shard.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := c.now()
	age := now.Sub(entry.fetchedAt)

	if entry.has && age < c.ttl {
		metrics.RecordCacheLookup("fresh")
		return entry.value, nil
	}

	metrics.RecordCacheLookup(c.lookupState(entry, age))

	var prev *riskcontext.RiskContext
	if entry.has {
		v := entry.value
		prev = &v
	}

	// Never wait on the budget: a denial degrades immediately
	outcome := c.limiter.Acquire(now)
	if !outcome.Granted {
		rlErr := errors.Wrapf(errors.ErrRateLimited, "refresh %s: retry after %s", symbol, outcome.RetryAfter)
		return c.degrade(ctx, shard, entry, symbol, rlErr, prev, now), rlErr
	}

	fetched, err := c.fetcher.Fetch(ctx, symbol)
	if err != nil {
		return c.degrade(ctx, shard, entry, symbol, err, prev, now), err
	}

	// The cache clock owns freshness bookkeeping
	fetched.RetrievedAt = now
	entry.value = fetched
	entry.fetchedAt = now
	entry.has = true

	return fetched, nil
}

// degrade resolves a failed refresh through the failure policy.
// A resolution that fell all the way to the default means the previous
// entry (if any) was past its stale limit, so it is evicted; a stale
// resolution keeps the entry for the next attempt.
func (c *ContextCache) degrade(ctx context.Context, shard *cacheShard, entry *cacheEntry, symbol string, fetchErr error, prev *riskcontext.RiskContext, now time.Time) riskcontext.RiskContext {
	resolved := c.policy.Resolve(ctx, symbol, fetchErr, prev, now)

	if resolved.Origin == riskcontext.OriginDefault {
		entry.has = false
		entry.value = riskcontext.RiskContext{}

		shard.mu.Lock()
		delete(shard.entries, symbol)
		shard.mu.Unlock()
	}

	return resolved
}

func (c *ContextCache) lookupState(entry *cacheEntry, age time.Duration) string {
	switch {
	case !entry.has:
		return "miss"
	case age < c.staleLimit:
		return "stale"
	default:
		return "expired"
	}
}

func (c *ContextCache) shard(symbol string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return &c.shards[h.Sum32()%shardCount]
}

// Len reports the number of cached symbols, for diagnostics
func (c *ContextCache) Len() int {
	total := 0
	for i := range c.shards {
		c.shards[i].mu.Lock()
		total += len(c.shards[i].entries)
		c.shards[i].mu.Unlock()
	}
	return total
}
