package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/skillforge/internal/retry"
)

func fastConfig(attempts int) retry.Config {
	return retry.Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(5), func(context.Context) error {
		calls++
		return retry.Permanent(errors.New("bad request"))
	})

	assert.True(t, retry.IsPermanent(err))
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	var retries []int
	cfg := fastConfig(2)
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) }

	err := retry.Do(context.Background(), cfg, func(context.Context) error { return errors.New("down") })

	assert.EqualError(t, err, "down")
	assert.Equal(t, []int{1}, retries)
}

func TestDo_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := retry.Config{MaxAttempts: 5, InitialDelay: time.Hour}
	err := retry.Do(ctx, cfg, func(context.Context) error { return errors.New("down") })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_DelayGrowsAndCaps(t *testing.T) {
	cfg := retry.Config{InitialDelay: 30 * time.Second, MaxDelay: 30 * time.Minute, Multiplier: 2}

	assert.Equal(t, 30*time.Second, cfg.Delay(1))
	assert.Equal(t, time.Minute, cfg.Delay(2))
	assert.Equal(t, 2*time.Minute, cfg.Delay(3))
	assert.Equal(t, 16*time.Minute, cfg.Delay(6))
	assert.Equal(t, 30*time.Minute, cfg.Delay(7))
	assert.Equal(t, 30*time.Minute, cfg.Delay(500))
}

func TestConfig_BackoffStaysWithinJitter(t *testing.T) {
	cfg := retry.Config{InitialDelay: time.Second, Multiplier: 1, JitterFactor: 0.1}

	for i := 0; i < 50; i++ {
		d := cfg.Backoff(3)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}
