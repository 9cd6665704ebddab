// Package ratelimit implements the per-user admission gate for the relay.
//
// Each user identity gets its own token bucket backed by
// golang.org/x/time/rate. Buckets refill continuously (computed from elapsed
// time, no timer goroutine) and are created lazily on the first admission
// check. They are never evicted: the relay accepts one map entry per distinct
// user ever seen, which is bounded by the user population rather than by
// traffic.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Bucket parameters: 30 tokens per minute steady refill, up to 120 banked,
// and 30 immediately available to a fresh sender.
const (
	refillTokens  = 30
	refillWindow  = time.Minute
	maxTokens     = 120
	initialTokens = 30
)

// Limiter is a per-user token-bucket admission gate. Buckets for different
// users are independent; the shared map is the only cross-user contention
// point. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[int64]*rate.Limiter
}

// New returns an empty Limiter ready for use.
func New() *Limiter {
	return &Limiter{buckets: make(map[int64]*rate.Limiter)}
}

// Admit attempts to consume one token from the user's bucket without
// blocking. It returns (0, true) when a token was available, or
// (retryAfter, false) with the minimum wait until the next token when the
// bucket is empty.
func (l *Limiter) Admit(userID int64) (time.Duration, bool) {
	return l.admitAt(time.Now(), userID)
}

// admitAt is Admit with an injected clock. Tests drive it with synthetic
// timestamps to cover refill behavior without sleeping.
func (l *Limiter) admitAt(now time.Time, userID int64) (time.Duration, bool) {
	lim := l.bucket(now, userID)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		// Unreachable with n=1 <= burst; treat as a full-window wait.
		return refillWindow, false
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay, false
	}
	return 0, true
}

// bucket returns the user's limiter, creating it on first sight. A new
// bucket starts with the initial allowance rather than full capacity, so the
// surplus burst headroom has to be earned by idling.
func (l *Limiter) bucket(now time.Time, userID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.buckets[userID]; ok {
		return lim
	}

	lim := rate.NewLimiter(rate.Limit(float64(refillTokens)/refillWindow.Seconds()), maxTokens)
	// rate.NewLimiter starts with a full burst; drain down to the initial
	// allowance.
	lim.AllowN(now, maxTokens-initialTokens)
	l.buckets[userID] = lim
	return lim
}

// Size reports the number of tracked buckets. Exposed for metrics.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
