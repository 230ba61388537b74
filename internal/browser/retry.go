package browser

import (
	"context"
	"time"

	"vellum/internal/config"
)

// RetryPolicy is the explicit retry value applied uniformly by the session
// controller and the entity extractor: max attempts, base delay, and backoff
// multiplier. Attempt n sleeps base * multiplier^(n-1) before running.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// PolicyFromConfig builds the retry policy from configuration.
func PolicyFromConfig(cfg config.Retry) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   time.Duration(cfg.BaseDelaySec) * time.Second,
		Multiplier:  cfg.BackoffFactor,
	}
}

// Do runs fn up to MaxAttempts times with exponential backoff, stopping early
// on success or context cancellation. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			if p.Multiplier > 1 {
				delay = time.Duration(float64(delay) * p.Multiplier)
			}
		}
		if lastErr = fn(attempt); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
