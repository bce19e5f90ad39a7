package marketdata

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FetchFunc performs a single upstream fetch attempt.
type FetchFunc func() (any, error)

// RetryPolicy wraps a fetch attempt with bounded retries. Rate-limited
// responses get a distinct, longer backoff schedule because the upstream
// itself asked for a slow-down; every other failure backs off exponentially.
type RetryPolicy struct {
	maxRetries int
	log        zerolog.Logger

	// sleep is swappable for tests; defaults to a context-aware timer sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a retry policy that gives up after maxRetries attempts.
func NewRetryPolicy(maxRetries int, log zerolog.Logger) *RetryPolicy {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryPolicy{
		maxRetries: maxRetries,
		log:        log.With().Str("component", "retry").Logger(),
		sleep:      sleepCtx,
	}
}

// Execute invokes fn up to maxRetries times, returning the first success.
// Backoff between attempts: (attempt+1)*5s when the error indicates
// rate-limiting (HTTP 429 / "Too Many Requests"), 2^attempt seconds
// otherwise. The last error is returned once attempts are exhausted; the
// caller decides whether a stale cache entry can stand in.
func (p *RetryPolicy) Execute(ctx context.Context, fn FetchFunc) (any, error) {
	var lastErr error

	for attempt := 0; attempt < p.maxRetries; attempt++ {
		value, err := fn()
		if err == nil {
			return value, nil
		}
		lastErr = err

		if attempt == p.maxRetries-1 {
			break
		}

		delay := time.Duration(1<<uint(attempt)) * time.Second
		if isRateLimited(err) {
			delay = time.Duration(attempt+1) * 5 * time.Second
		}

		p.log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("Fetch failed, retrying")

		if err := p.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// isRateLimited reports whether the error text indicates the upstream
// rejected the call for quota reasons.
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
