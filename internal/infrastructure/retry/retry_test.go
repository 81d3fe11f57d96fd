package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	got, err := Do(context.Background(), 3, Linear(time.Millisecond), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")
	got, err := Do(context.Background(), 3, Linear(time.Millisecond), func(ctx context.Context) (int, error) {
		attempts++
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, got)
	// maxAttempts total attempts, not maxAttempts retries
	assert.Equal(t, 3, attempts)
}

func TestDo_PermanentErrorStopsEarly(t *testing.T) {
	attempts := 0
	fatal := errors.New("fatal")
	_, err := Do(context.Background(), 5, Linear(time.Millisecond), func(ctx context.Context) (int, error) {
		attempts++
		return 0, backoff.Permanent(fatal)
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := Do(ctx, 10, Linear(50*time.Millisecond), func(ctx context.Context) (int, error) {
		attempts++
		cancel()
		return 0, errors.New("transient")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestLinear_GrowsWithAttempt(t *testing.T) {
	policy := Linear(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, policy.NextBackOff())
	assert.Equal(t, 20*time.Millisecond, policy.NextBackOff())
	assert.Equal(t, 30*time.Millisecond, policy.NextBackOff())

	policy.Reset()
	assert.Equal(t, 10*time.Millisecond, policy.NextBackOff())
}
