package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	apperrors "tradecoach/internal/errors"
)

// RetryPolicy bounds retries of a failing call with exponential backoff.
// MaxAttempts of 1 disables retrying.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter draws each delay uniformly from [0, backoff].
	Jitter bool
	// ShouldRetry classifies errors. Nil uses apperrors.IsRetryable.
	ShouldRetry func(error) bool
	// Rand returns a float in [0, 1). Nil uses math/rand.
	Rand func() float64
}

// DefaultRetryPolicy returns 3 attempts starting at 500ms, doubling up to 4s, with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Backoff returns the delay after the given zero-based failed attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := float64(p.InitialDelay) * math.Pow(mult, float64(attempt))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter {
		rnd := p.Rand
		if rnd == nil {
			rnd = rand.Float64
		}
		delay *= rnd()
	}
	return time.Duration(delay)
}

func (p RetryPolicy) retryable(err error) bool {
	if p.ShouldRetry != nil {
		return p.ShouldRetry(err)
	}
	return apperrors.IsRetryable(err)
}

// Retry calls fn until it succeeds, returns a non-retryable error, the attempts
// run out or ctx is done. It returns the number of attempts made.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, int, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return zero, attempt, lastErr
		}

		v, err := fn(ctx)
		if err == nil {
			return v, attempt + 1, nil
		}
		lastErr = err

		// Don't sleep after the last attempt
		if attempt == maxAttempts-1 || !p.retryable(err) {
			return zero, attempt + 1, lastErr
		}
		if err := sleepContext(ctx, p.Backoff(attempt)); err != nil {
			return zero, attempt + 1, lastErr
		}
	}
	return zero, maxAttempts, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
