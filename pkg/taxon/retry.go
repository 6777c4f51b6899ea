package taxon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// RetryPolicy decides how many times and how often a failed lookup is
// repeated.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// BaseDelay is the pause after the first failed attempt. Every next
	// pause is twice as long.
	BaseDelay time.Duration

	// MaxDelay caps the pause between attempts.
	MaxDelay time.Duration

	// Timeout limits every single attempt, 0 means no limit.
	Timeout time.Duration

	// Retryable decides if an error is worth another attempt.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns 3 attempts with exponential backoff starting
// at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Timeout:     60 * time.Second,
		Retryable:   IsRetryable,
	}
}

// IsRetryable returns false for context errors and for authority replies
// that are answers (204, 400) rather than failures. Everything else is
// retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var stErr *StatusError
	if errors.As(err, &stErr) {
		switch stErr.StatusCode {
		case http.StatusNoContent, http.StatusBadRequest:
			return false
		}
		return stErr.StatusCode < 200 || stErr.StatusCode > 299
	}
	return true
}

// Delay returns the pause after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	res := p.BaseDelay
	for i := 1; i < attempt; i++ {
		res *= 2
		if p.MaxDelay > 0 && res >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && res > p.MaxDelay {
		return p.MaxDelay
	}
	return res
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. It returns the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return err
		}

		err = p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if i == attempts || !retryable(err) {
			return err
		}

		delay := p.Delay(i)
		slog.Debug("Retrying lookup",
			"attempt", i, "max-attempts", attempts, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

func (p RetryPolicy) attempt(
	ctx context.Context,
	fn func(context.Context) error,
) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(ctx)
}
