package analysis

import (
	"context"
	"strings"
	"time"
)

// RetryPolicy retries a function with exponential backoff. Only errors the
// Retryable predicate accepts are retried; everything else propagates on the
// first attempt.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	Retryable    func(error) bool
}

// DefaultRetryPolicy matches the provider's rate-limit behavior: three
// attempts, 2s initial delay, doubling each attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Multiplier:   2,
		Retryable:    IsTransient,
	}
}

// Do runs fn until it succeeds, the attempts are exhausted, the error is not
// retryable, or the context is done.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	delay := p.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxAttempts {
			return err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
}

// IsTransient reports whether err looks like a rate-limit or overload signal
// from the model provider.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "503") {
		return true
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "overloaded") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "unavailable")
}
