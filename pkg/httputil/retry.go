package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a transient failure worth another attempt: a
// timeout, a dropped connection, or a 5xx from the snapshot or locate API.
// Errors not wrapped in it abort a [Retry] immediately — a 404 will not
// resolve by asking again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn up to attempts times, doubling delay after each failed
// attempt. Context cancellation wins over the backoff wait and returns
// ctx.Err(); when every attempt fails the last error is returned.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}

// RetryWithBackoff is [Retry] with the defaults the HTTP snapshot source
// and locate resolver use: three attempts starting at one second.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
