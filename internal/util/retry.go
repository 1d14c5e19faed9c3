package util

import (
	"context"
	"errors"
	"time"
)

// Backoff configures RetryWithBackoff. The n-th wait is Delay*2^(n-1), capped
// at MaxDelay when MaxDelay > 0. A zero Delay retries immediately.
type Backoff struct {
	Tries    int
	Delay    time.Duration
	MaxDelay time.Duration
}

func (b Backoff) wait(attempt int) time.Duration {
	if b.Delay <= 0 {
		return 0
	}
	d := b.Delay << min(attempt, 16)
	if b.MaxDelay > 0 && d > b.MaxDelay {
		return b.MaxDelay
	}
	return d
}

// RetryWithContext calls fn up to maxTries times until it returns a nil error,
// or until ctx is done. If maxTries <= 0, it defaults to 1.
// Returns ctx.Err() if the context is canceled, otherwise returns the last error.
func RetryWithContext[T any](ctx context.Context, maxTries int, fn func(context.Context) (T, error)) (T, error) {
	return RetryWithBackoff(ctx, Backoff{Tries: maxTries}, fn)
}

// RetryWithBackoff is RetryWithContext with exponential waits between
// attempts. Errors wrapping context.Canceled or context.DeadlineExceeded are
// returned at once.
func RetryWithBackoff[T any](ctx context.Context, b Backoff, fn func(context.Context) (T, error)) (T, error) {
	tries := max(b.Tries, 1)
	var zero T
	var lastErr error
	for i := range tries {
		if i > 0 {
			if err := sleepContext(ctx, b.wait(i-1)); err != nil {
				return zero, err
			}
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
