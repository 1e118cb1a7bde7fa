package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func alwaysRetryable(error) Class { return Retryable }

func TestDoReturnsFirstSuccess(t *testing.T) {
	t.Parallel()
	calls := 0
	out, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond, Classify: alwaysRetryable},
		func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond, Classify: alwaysRetryable},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errBoom
		})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls, "exactly MaxAttempts calls, never a 4th")
}

func TestDoPermanentStopsImmediately(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond, Classify: func(error) Class { return Permanent }},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errBoom
		})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestDoImmediateSkipsDelay(t *testing.T) {
	t.Parallel()
	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: 5 * time.Second, Classify: func(error) Class { return Immediate }},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errBoom
		})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)
	assert.Less(t, time.Since(start), time.Second, "immediate retries must not wait the delay")
}

func TestDoRecoversAfterRetries(t *testing.T) {
	t.Parallel()
	calls := 0
	out, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond, Classify: alwaysRetryable},
		func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errBoom
			}
			return 42, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 42, out)
	assert.Equal(t, 3, calls)
}

func TestDoHonoursContextDuringDelay(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 3, Delay: 5 * time.Second, Classify: alwaysRetryable},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errBoom
		})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}
