package ai

import (
	"context"
	"time"
)

// RetryPolicy runs an upstream call with bounded retry. Which failures are
// retried is a business decision: some upstream errors must not be re-sent
// because the request may already have had side effects.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// Backoff returns the wait before retrying after the given 1-indexed
	// attempt.
	Backoff func(attempt int) time.Duration
	// Retryable classifies an error; non-retryable errors fail immediately.
	Retryable func(error) bool
	// Sleep waits for d or until the context is done. Injectable so tests
	// do not sleep for real.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy retries rate-limit and transient-unavailable failures
// up to three attempts with exponential backoff: 2s, 4s, 8s.
func DefaultRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
		Retryable: retryable,
		Sleep:     sleepCtx,
	}
}

// Do invokes fn until it succeeds, fails non-retryably, or the attempt
// budget is spent. Returns the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, p.Backoff(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
