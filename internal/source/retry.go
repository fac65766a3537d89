package source

import (
	"context"
	"time"
)

// Default retry configuration values.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// RetryPolicy retries transient failures with exponential backoff.
// Non-transient errors, including ErrNotSupported, fail immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	BackoffMult float64
}

// DefaultRetryPolicy returns the standard policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultRetryDelay,
		MaxDelay:    DefaultMaxDelay,
		BackoffMult: DefaultBackoffMult,
	}
}

// Do runs op, retrying while it returns a TransientError. The last
// error is returned once attempts are exhausted or ctx is cancelled.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	mult := p.BackoffMult
	if mult <= 1 {
		mult = DefaultBackoffMult
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * mult)
			if delay > maxDelay {
				delay = maxDelay
			}
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
