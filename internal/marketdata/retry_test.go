package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRetryPolicy returns a policy whose sleeps are captured instead of
// executed.
func recordingRetryPolicy(maxRetries int) (*RetryPolicy, *[]time.Duration) {
	policy := NewRetryPolicy(maxRetries, zerolog.Nop())
	var sleeps []time.Duration
	policy.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return policy, &sleeps
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	policy, sleeps := recordingRetryPolicy(3)

	calls := 0
	value, err := policy.Execute(context.Background(), func() (any, error) {
		calls++
		return "payload", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "payload", value)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
}

func TestRetryFailTwiceThenSucceed(t *testing.T) {
	policy, sleeps := recordingRetryPolicy(3)

	calls := 0
	value, err := policy.Execute(context.Background(), func() (any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 3, calls)
	// Exponential schedule: 2^0, 2^1 seconds.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
}

func TestRetryRateLimitedBackoffSchedule(t *testing.T) {
	policy, sleeps := recordingRetryPolicy(3)

	_, err := policy.Execute(context.Background(), func() (any, error) {
		return nil, errors.New("HTTP 429: Too Many Requests")
	})

	require.Error(t, err)
	// Quota backoff: (attempt+1)*5s for the two sleeps before exhaustion.
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, *sleeps)
}

func TestRetryExhaustionPropagatesLastError(t *testing.T) {
	policy, _ := recordingRetryPolicy(2)

	calls := 0
	_, err := policy.Execute(context.Background(), func() (any, error) {
		calls++
		return nil, errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "boom")
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	policy := NewRetryPolicy(3, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := policy.Execute(ctx, func() (any, error) {
		calls++
		return nil, errors.New("boom")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "no further attempts after the backoff sleep is cancelled")
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{err: "HTTP 429", want: true},
		{err: "too many requests", want: true},
		{err: "Too Many Requests", want: true},
		{err: "connection refused", want: false},
		{err: "not found", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isRateLimited(errors.New(tt.err)), tt.err)
	}
}
