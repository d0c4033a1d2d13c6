package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		Retryable:    IsTransient,
	}
}

func TestRetryDo(t *testing.T) {
	transient := errors.New("429 resource exhausted")
	fatal := errors.New("invalid api key")

	t.Run("succeeds first attempt", func(t *testing.T) {
		calls := 0
		err := testPolicy(3).Do(context.Background(), func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		err := testPolicy(3).Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := testPolicy(3).Do(context.Background(), func(context.Context) error {
			calls++
			return transient
		})
		require.ErrorIs(t, err, transient)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry non-transient errors", func(t *testing.T) {
		calls := 0
		err := testPolicy(3).Do(context.Background(), func(context.Context) error {
			calls++
			return fatal
		})
		require.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := testPolicy(3).Do(ctx, func(context.Context) error {
			calls++
			return transient
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit status", errors.New("got HTTP 429 from upstream"), true},
		{"service unavailable status", errors.New("503 service unavailable"), true},
		{"overloaded", errors.New("the model is Overloaded"), true},
		{"rate limit text", errors.New("Rate limit exceeded"), true},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED: quota"), true},
		{"unavailable text", errors.New("backend temporarily UNAVAILABLE"), true},
		{"auth error", errors.New("401 invalid credentials"), false},
		{"parse error", errors.New("unexpected end of JSON input"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
