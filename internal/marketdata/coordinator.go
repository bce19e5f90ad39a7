package marketdata

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Coordinator composes the TTL cache, rate limiter, and retry policy into a
// single GetOrFetch operation. It is the chokepoint every upstream data
// access must pass through; no component calls the upstream source directly.
//
// One Coordinator exists per call-site group (quotes, analytics data), each
// built with its own TTL defaults and pacing by the composition root. There
// is no ambient global instance.
type Coordinator struct {
	cache   *TTLCache
	limiter *RateLimiter
	retry   *RetryPolicy
	group   singleflight.Group
	log     zerolog.Logger
}

// NewCoordinator wires a coordinator from its three parts.
func NewCoordinator(cache *TTLCache, limiter *RateLimiter, retry *RetryPolicy, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		cache:   cache,
		limiter: limiter,
		retry:   retry,
		log:     log.With().Str("component", "fetch_coordinator").Logger(),
	}
}

// GetOrFetch returns the cached value for key when fresh, otherwise fetches
// through the rate limiter and retry policy, caching the result. If every
// retry fails but a prior value exists in the cache, the stale value is
// returned instead of an error; only when nothing is cached does the call
// fail, with a *FetchError.
//
// Concurrent misses for the same key are coalesced into one in-flight
// upstream call; late arrivals receive the first caller's result. A caller
// whose context is cancelled mid-flight gets the context error, but the
// fetch itself completes and populates the cache for the next caller.
func (c *Coordinator) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fn FetchFunc) (any, error) {
	if value, ok := c.cache.Get(key); ok {
		c.log.Debug().Str("key", key).Msg("Cache hit")
		return value, nil
	}

	result := c.group.DoChan(key, func() (any, error) {
		// Another flight may have landed between our miss and this closure.
		if value, ok := c.cache.Get(key); ok {
			return value, nil
		}

		fetchID := uuid.NewString()
		c.log.Debug().
			Str("key", key).
			Str("fetch_id", fetchID).
			Msg("Cache miss, fetching")

		// The flight is detached from the triggering caller: its cancellation
		// must not stop a fetch that other callers may be waiting on.
		fetchCtx := context.WithoutCancel(ctx)

		if err := c.limiter.Await(fetchCtx, key); err != nil {
			return nil, err
		}

		value, err := c.retry.Execute(fetchCtx, fn)
		if err != nil {
			if stale, ok := c.cache.GetStale(key); ok {
				c.log.Warn().
					Err(err).
					Str("key", key).
					Str("fetch_id", fetchID).
					Msg("Fetch failed, using stale cached value")
				return stale, nil
			}
			return nil, &FetchError{Key: key, Attempts: c.retry.maxRetries, Err: err}
		}

		c.cache.Put(key, value, ttl)
		return value, nil
	})

	select {
	case res := <-result:
		return res.Val, res.Err
	case <-ctx.Done():
		// The in-flight fetch keeps running and will populate the cache.
		return nil, ctx.Err()
	}
}

// CacheStats exposes the underlying cache counters.
func (c *Coordinator) CacheStats() Stats {
	return c.cache.Stats()
}

// Cache returns the coordinator's cache for snapshot and maintenance use.
func (c *Coordinator) Cache() *TTLCache {
	return c.cache
}
