// Package ratelimiter implements fixed-window request limiting keyed by caller.
package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is the time left in the current window.
	ResetIn time.Duration
}

// Limiter counts hits per key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type window struct {
	count     int
	lastReset time.Time
}

// RateLimiter is an in-process Limiter. It is used when Redis is unavailable.
type RateLimiter struct {
	limit    int
	interval time.Duration

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter allows limit hits per key in each interval.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		interval: interval,
		windows:  map[string]*window{},
		now:      time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.lastReset) >= rl.interval {
		w = &window{lastReset: now}
		rl.windows[key] = w
		rl.sweep(now)
	}

	w.count++
	remaining := rl.limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   w.count <= rl.limit,
		Limit:     rl.limit,
		Remaining: remaining,
		ResetIn:   rl.interval - now.Sub(w.lastReset),
	}, nil
}

// sweep drops windows that have ended so idle keys do not accumulate.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, w := range rl.windows {
		if now.Sub(w.lastReset) >= rl.interval {
			delete(rl.windows, k)
		}
	}
}
