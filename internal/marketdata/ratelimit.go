// Package marketdata provides the rate-limited, cached, retrying fetch layer
// that shields the upstream market data source. Every upstream access in the
// system goes through a Coordinator from this package.
package marketdata

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum spacing between consecutive calls for the
// same key. Each key gets its own limiter, so waiting on one key never
// blocks callers using other keys. The map mutex is held only for lookup and
// insert, never across a wait.
type RateLimiter struct {
	minDelay time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter creates a rate limiter with the given minimum delay between
// calls per key.
func NewRateLimiter(minDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		minDelay: minDelay,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Await blocks until a call for the key is permitted. The first call for a
// key proceeds immediately; subsequent calls are spaced at least minDelay
// apart. The reservation is taken atomically by the per-key limiter, so two
// near-simultaneous callers cannot both compute a short wait and burst the
// upstream source.
func (l *RateLimiter) Await(ctx context.Context, key string) error {
	if l.minDelay <= 0 {
		return nil
	}

	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.minDelay), 1)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	return lim.Wait(ctx)
}
