package reconcile

import (
	"context"
	"errors"
	"time"
)

// RetryConfig bounds the retries of a batch commit that failed with ErrBusy.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first. Values below 1 mean 1.
	Attempts int

	// InitialBackoff is the wait before the second try.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:       5,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     time.Second,
	}
}

// retryOnBusy runs op until it succeeds, fails with an error other than ErrBusy,
// or the attempts are used up. onRetry is called before every wait.
func retryOnBusy(ctx context.Context, cfg RetryConfig, op func() error, onRetry func(attempt int, wait time.Duration, err error)) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrBusy) || attempt == attempts {
			break
		}

		if onRetry != nil {
			onRetry(attempt, delay, lastErr)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if cfg.MaxBackoff > 0 && delay > cfg.MaxBackoff {
			delay = cfg.MaxBackoff
		}
	}
	return lastErr
}
