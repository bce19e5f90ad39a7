package marketdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCoordinator builds a coordinator with a controllable clock, no pacing,
// and recorded (not executed) backoff sleeps.
func testCoordinator(t *testing.T, maxRetries int) (*Coordinator, *time.Time) {
	t.Helper()

	cache, now := testCache(64)
	retry := NewRetryPolicy(maxRetries, zerolog.Nop())
	retry.sleep = func(context.Context, time.Duration) error { return nil }

	coord := NewCoordinator(cache, NewRateLimiter(0), retry, zerolog.Nop())
	return coord, now
}

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	coord, _ := testCoordinator(t, 3)
	ctx := context.Background()

	calls := 0
	fn := func() (any, error) {
		calls++
		return "payload", nil
	}

	first, err := coord.GetOrFetch(ctx, "k", time.Minute, fn)
	require.NoError(t, err)

	second, err := coord.GetOrFetch(ctx, "k", time.Minute, fn)
	require.NoError(t, err)

	assert.Equal(t, first, second, "cached value must be returned identically")
	assert.Equal(t, 1, calls, "fetch function must not run on a fresh hit")
}

func TestGetOrFetchRefetchesAfterExpiry(t *testing.T) {
	coord, now := testCoordinator(t, 3)
	ctx := context.Background()

	calls := 0
	fn := func() (any, error) {
		calls++
		return calls, nil
	}

	_, err := coord.GetOrFetch(ctx, "k", time.Minute, fn)
	require.NoError(t, err)

	*now = now.Add(61 * time.Second)

	value, err := coord.GetOrFetch(ctx, "k", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, value)
	assert.Equal(t, 2, calls, "expiry must trigger exactly one more fetch")
}

func TestGetOrFetchStaleFallback(t *testing.T) {
	coord, now := testCoordinator(t, 2)
	ctx := context.Background()

	_, err := coord.GetOrFetch(ctx, "k", time.Minute, func() (any, error) {
		return "good", nil
	})
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)

	value, err := coord.GetOrFetch(ctx, "k", time.Minute, func() (any, error) {
		return nil, errors.New("upstream down")
	})
	require.NoError(t, err, "stale value must stand in for a failed fetch")
	assert.Equal(t, "good", value)
}

func TestGetOrFetchFailsWithoutAnyCache(t *testing.T) {
	coord, _ := testCoordinator(t, 2)

	calls := 0
	_, err := coord.GetOrFetch(context.Background(), "k", time.Minute, func() (any, error) {
		calls++
		return nil, errors.New("upstream down")
	})

	require.Error(t, err)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "k", fetchErr.Key)
	assert.Equal(t, 2, fetchErr.Attempts)
	assert.Equal(t, 2, calls)
}

func TestGetOrFetchFailureDoesNotPoisonCache(t *testing.T) {
	coord, _ := testCoordinator(t, 1)
	ctx := context.Background()

	_, err := coord.GetOrFetch(ctx, "k", time.Minute, func() (any, error) {
		return nil, errors.New("down")
	})
	require.Error(t, err)

	value, err := coord.GetOrFetch(ctx, "k", time.Minute, func() (any, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", value)
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	cache := NewTTLCache(64)
	retry := NewRetryPolicy(1, zerolog.Nop())
	coord := NewCoordinator(cache, NewRateLimiter(0), retry, zerolog.Nop())

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func() (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]any, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := coord.GetOrFetch(context.Background(), "k", time.Minute, fn)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give the goroutines time to pile onto the same flight, then let the
	// single fetch finish.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent misses must coalesce into one upstream call")
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestGetOrFetchAbandonedCallerStillPopulatesCache(t *testing.T) {
	cache := NewTTLCache(64)
	retry := NewRetryPolicy(1, zerolog.Nop())
	coord := NewCoordinator(cache, NewRateLimiter(0), retry, zerolog.Nop())

	release := make(chan struct{})
	fetched := make(chan struct{})
	fn := func() (any, error) {
		<-release
		close(fetched)
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := coord.GetOrFetch(ctx, "k", time.Minute, fn)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	<-fetched

	// The detached fetch must have completed and cached its result.
	assert.Eventually(t, func() bool {
		v, ok := cache.Get("k")
		return ok && v == "late"
	}, time.Second, 10*time.Millisecond)
}
