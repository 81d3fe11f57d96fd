// Package retry provides the bounded retry-with-backoff combinator shared by
// the scraper engine and the marketplace adapter.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff yields step, 2*step, 3*step, ... between attempts.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

// Linear returns a backoff whose delay grows linearly with the attempt
// number.
func Linear(step time.Duration) backoff.BackOff {
	return &linearBackOff{step: step}
}

// NextBackOff implements backoff.BackOff.
func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

// Reset implements backoff.BackOff.
func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// Do runs op up to maxAttempts times, sleeping per the backoff policy
// between attempts. The zero value of T and the last error are returned when
// every attempt fails. Ops can abort retrying early by returning
// backoff.Permanent(err). Context cancellation stops the loop between
// attempts.
func Do[T any](ctx context.Context, maxAttempts int, policy backoff.BackOff, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	wrapped := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxAttempts-1)), ctx)
	err := backoff.Retry(func() error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, wrapped)
	return result, err
}
