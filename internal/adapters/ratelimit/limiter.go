package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Budget tiers of the hosted risk API. The authenticated tier applies
// as soon as a credential is configured; nothing else distinguishes it.
const (
	anonymousCapacity     = 60
	authenticatedCapacity = 300
	budgetWindow          = time.Minute
)

// Tier identifies which request budget a limiter enforces
type Tier string

const (
	TierAnonymous     Tier = "anonymous"
	TierAuthenticated Tier = "authenticated"
)

// Outcome is the result of one acquisition attempt.
// When denied, RetryAfter reports how long until one token accrues;
// callers decide whether to wait, skip, or serve stale data.
type Outcome struct {
	Granted    bool
	RetryAfter time.Duration
}

// Limiter gates outbound calls to the risk API with a token bucket:
// tokens refill continuously at capacity/window per second, capped at
// capacity. Safe for concurrent use across all symbols.
type Limiter struct {
	limiter  *rate.Limiter
	tier     Tier
	capacity int
}

// NewLimiter selects the budget tier from credential presence
func NewLimiter(apiKey string) *Limiter {
	if apiKey != "" {
		return newTierLimiter(TierAuthenticated, authenticatedCapacity)
	}
	return newTierLimiter(TierAnonymous, anonymousCapacity)
}

func newTierLimiter(tier Tier, capacity int) *Limiter {
	refill := rate.Limit(float64(capacity) / budgetWindow.Seconds())
	return &Limiter{
		limiter:  rate.NewLimiter(refill, capacity),
		tier:     tier,
		capacity: capacity,
	}
}

// Acquire attempts to consume one token at the given instant without
// blocking. The limiter never sleeps; a denial carries the wait time
// until the next token instead.
func (l *Limiter) Acquire(now time.Time) Outcome {
	res := l.limiter.ReserveN(now, 1)
	if !res.OK() {
		return Outcome{Granted: false, RetryAfter: budgetWindow}
	}

	delay := res.DelayFrom(now)
	if delay > 0 {
		// Not enough tokens yet. Return the reservation so the budget
		// is not consumed by a denied call.
		res.CancelAt(now)
		return Outcome{Granted: false, RetryAfter: delay}
	}

	return Outcome{Granted: true}
}

// Tokens reports the tokens available at the given instant
func (l *Limiter) Tokens(now time.Time) float64 {
	return l.limiter.TokensAt(now)
}

// Tier returns the budget tier this limiter enforces
func (l *Limiter) Tier() Tier {
	return l.tier
}

// Capacity returns the maximum requests per window
func (l *Limiter) Capacity() int {
	return l.capacity
}
