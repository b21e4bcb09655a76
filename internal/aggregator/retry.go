package aggregator

import (
	"context"
	"math"
	"time"

	logger "github.com/sirupsen/logrus"

	apperrors "github.com/Dharakkkk/GithubAssistant/internal/errors"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second
	DefaultMaxDelay   = 30 * time.Second
)

// RetryPolicy bounds the whole-pipeline retry
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns 3 retries with a 2s exponential base
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// Delay returns the wait before retry number attempt (0-based)
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

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

// withRetry runs fn until it succeeds, fails with a non-retryable error,
// or the policy is exhausted. The last error is returned unchanged.
func withRetry[T any](ctx context.Context, policy RetryPolicy, sleep SleepFunc, log *logger.Entry, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := policy.Delay(attempt - 1)
			log.WithField("attempt", attempt).Warnf("Retrying in %v after: %v", delay, lastErr)
			if err := sleep(ctx, delay); err != nil {
				return result, err
			}
		}

		result, lastErr = fn(ctx)
		if lastErr == nil {
			return result, nil
		}

		if ctx.Err() != nil || !apperrors.IsRetryable(lastErr) {
			return result, lastErr
		}
	}

	return result, lastErr
}
