package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff_NextDelay(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 100 * time.Millisecond},
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, eb.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_JitterBounds(t *testing.T) {
	eb := StartupBackoff()

	for i := 0; i < 100; i++ {
		d := eb.NextDelay(1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestFixedBackoff(t *testing.T) {
	fb := &FixedBackoff{Delay: 50 * time.Millisecond}
	assert.Equal(t, 50*time.Millisecond, fb.NextDelay(0))
	assert.Equal(t, 50*time.Millisecond, fb.NextDelay(7))
}

func TestRetry(t *testing.T) {
	fast := &FixedBackoff{Delay: time.Millisecond}
	boom := errors.New("boom")

	t.Run("succeeds_after_failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 5, fast, func(context.Context) error {
			calls++
			if calls < 3 {
				return boom
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns_last_error", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 3, fast, func(context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops_on_cancelled_context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		err := Retry(ctx, 10, &FixedBackoff{Delay: time.Hour}, func(context.Context) error {
			cancel()
			return boom
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
