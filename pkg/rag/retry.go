package rag

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy is an explicit bounded backoff loop. Modeling retries as data
// (count, base delay, jitter) keeps the "no retries after deadline" rule
// checkable: the loop never sleeps past the context deadline.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      float64 // fraction of the delay added as random jitter, 0..1
}

// DefaultRetryPolicy matches the pipeline defaults: 3 attempts, 200ms base,
// exponential doubling with 20% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		Jitter:      0.2,
	}
}

// SingleAttempt disables retrying entirely.
func SingleAttempt() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// Do runs fn up to MaxAttempts times. Only errors for which IsRetryable is
// true trigger another attempt; a provider RetryAfter hint overrides the
// computed backoff. Once the context is done, or the remaining time cannot
// cover the next sleep, the last error is returned immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == attempts {
			return lastErr
		}

		delay := p.backoff(attempt)
		if hint := RetryAfterHint(lastErr); hint > 0 {
			delay = hint
		}

		// Deadline exhaustion wins over component-local backoff.
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= delay {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}
	return lastErr
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	delay := base << (attempt - 1)
	if p.Jitter > 0 {
		delay += time.Duration(rand.Float64() * p.Jitter * float64(delay))
	}
	return delay
}
