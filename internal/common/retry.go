package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/service"
)

var (
	// ErrRateLimit marks a call refused by an oracle or chat API quota.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries is returned once every attempt has failed; the last
	// failure stays in the chain.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError lets a caller decide retry for an error IsRetryable does
// not know.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// RateLimitError is a rate limit that names how long the server wants the
// caller to wait. It matches ErrRateLimit.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v: retry after %s", ErrRateLimit, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimit
}

// WithRetry runs operation until it succeeds, fails with an error
// IsRetryable rejects, or opts.MaxAttempts is spent.
//
// Oracle outages, deadlines and rate limits are retried; contract violations
// and cancellation end the loop at once. Between attempts the delay grows by
// opts.Multiplier up to opts.MaxDelay. A RateLimitError waits exactly its
// RetryAfter, and any other rate limit waits opts.MaxDelay. Every wait ends
// early when ctx is done.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}

	delay := opts.InitialDelay

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return err
		}

		if attempt == opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		wait := delay
		var limited *RateLimitError
		switch {
		case errors.As(err, &limited) && limited.RetryAfter > 0:
			wait = limited.RetryAfter
		case errors.Is(err, ErrRateLimit):
			delay = opts.MaxDelay
			wait = delay
		}

		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			delay = time.Duration(float64(delay) * opts.Multiplier)
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}
	}

	return ErrMaxRetries
}
