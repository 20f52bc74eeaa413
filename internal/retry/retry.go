// Package retry provides bounded retry with exponential backoff for
// transient operation failures.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Options control the retry loop. Zero values fall back to the defaults.
type Options struct {
	MaxAttempts int           // default 3
	Delay       time.Duration // initial delay, default 100ms
	Backoff     bool          // double the delay after each attempt
}

// DefaultOptions match the retry policy used for persistence writes.
var DefaultOptions = Options{MaxAttempts: 3, Delay: 100 * time.Millisecond, Backoff: true}

// ExhaustedError is returned after every attempt has failed. It carries
// the attempt count and the last underlying error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs fn until it succeeds, all attempts are used up, or ctx is
// cancelled. Cancellation between attempts returns the context error.
func Do(ctx context.Context, opts Options, fn func() error) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions.MaxAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultOptions.Delay
	}

	var lastErr error
	delay := opts.Delay
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if opts.Backoff {
			delay *= 2
		}
	}
	return &ExhaustedError{Attempts: opts.MaxAttempts, Err: lastErr}
}
