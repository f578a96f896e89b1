package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/pkg/errors"
)

func testPolicy(attempts int) *Policy {
	return NewPolicy(Config{
		MaxAttempts: attempts,
		Backoff:     time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}, nil)
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := testPolicy(3).Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.ErrSourceUnavailable
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := testPolicy(3).Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return errors.ErrSourceUnavailable
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, errors.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	cause := errors.New("404 not found")
	err := testPolicy(5).Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		return Permanent(cause)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, cause, err)
}

func TestDoHonorsRateLimitWait(t *testing.T) {
	calls := 0
	start := time.Now()
	err := testPolicy(2).Do(context.Background(), "fetch", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return RateLimited(errors.ErrRateLimited, 30*time.Millisecond)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := NewPolicy(Config{MaxAttempts: 3, Backoff: time.Minute}, nil)
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, "fetch", func(ctx context.Context) error {
			return errors.ErrSourceUnavailable
		})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestWaitForGrowsExponentiallyWithCap(t *testing.T) {
	p := NewPolicy(Config{MaxAttempts: 5, Backoff: time.Second, MaxBackoff: 5 * time.Second}, nil)

	assert.Equal(t, time.Second, p.waitFor(1))
	assert.Equal(t, 2*time.Second, p.waitFor(2))
	assert.Equal(t, 4*time.Second, p.waitFor(3))
	assert.Equal(t, 5*time.Second, p.waitFor(4))
}
