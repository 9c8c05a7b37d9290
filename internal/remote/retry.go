package remote

import (
	"context"
	"fmt"
	"time"

	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/metrics"
)

// The retry policy is fixed: three attempts with a constant two second pause.
const (
	MaxAttempts = 3
	RetryDelay  = 2 * time.Second
)

// WaitFunc blocks for d or until ctx is done, whichever comes first.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Retrier re-runs remote operations that failed with a retryable error.
type Retrier struct {
	maxAttempts int
	delay       time.Duration
	wait        WaitFunc
}

func NewRetrier() *Retrier {
	return &Retrier{maxAttempts: MaxAttempts, delay: RetryDelay, wait: sleepContext}
}

// NewRetrierWithWait replaces the timer used between attempts.
func NewRetrierWithWait(wait WaitFunc) *Retrier {
	r := NewRetrier()
	r.wait = wait
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn until it succeeds, fails with a terminal error, the attempts
// run out or ctx is cancelled.
func (r *Retrier) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if r == nil {
		r = NewRetrier()
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return cancelled(operation, attempt-1, err)
		}

		metrics.RecordRetryAttempt(operation)
		logger.Debug("remote attempt", "operation", operation, "attempt", attempt, "max_attempts", r.maxAttempts)

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("remote operation succeeded after retry", "operation", operation, "attempt", attempt)
			}
			return nil
		}
		if !apperrors.IsRetryable(err) {
			return err
		}

		lastErr = err
		logger.Warn("remote attempt failed", "operation", operation, "attempt", attempt, "max_attempts", r.maxAttempts, "error", err)

		if attempt == r.maxAttempts {
			break
		}
		if werr := r.wait(ctx, r.delay); werr != nil {
			return cancelled(operation, attempt, werr)
		}
	}

	logger.Error("remote operation exhausted retries", "operation", operation, "attempts", r.maxAttempts, "error", lastErr)
	return &apperrors.HTTPError{
		Kind:     apperrors.KindExhaustedRetries,
		Code:     apperrors.StatusFor(apperrors.KindExhaustedRetries),
		Message:  fmt.Sprintf("%s failed: %v", operation, lastErr),
		Attempts: r.maxAttempts,
		Err:      lastErr,
	}
}

// Retry is Do for operations that return a value.
func Retry[T any](ctx context.Context, r *Retrier, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, operation, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func cancelled(operation string, attempts int, cause error) error {
	logger.Warn("remote operation cancelled", "operation", operation, "attempts", attempts)
	return &apperrors.HTTPError{
		Kind:     apperrors.KindCancelled,
		Code:     apperrors.StatusFor(apperrors.KindCancelled),
		Message:  operation + " cancelled",
		Attempts: attempts,
		Err:      cause,
	}
}
