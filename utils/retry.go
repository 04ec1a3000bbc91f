package utils

import (
	"context"
	"fmt"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryConfig holds the parameters for the retry strategy.
//
// Before every attempt, the first included, Do waits Delay as a politeness
// throttle. After a failed attempt n (zero based) it waits Delay*(n+1) before
// trying again, so backoff grows linearly.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *Logger
	Sleep       SleepFunc
}

// Do executes fn until it succeeds or the attempt budget is spent.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := sleep(ctx, r.Delay); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if r.Logger != nil {
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v", operationName, attempt+1, attempts, lastErr)
		}
		if attempt < attempts-1 {
			if err := sleep(ctx, r.Delay*time.Duration(attempt+1)); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}

// SleepContext sleeps for d, returning early with ctx.Err() on cancellation.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
