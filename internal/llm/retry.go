package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// classify turns 429, 5xx and transport failures into RetryableError.
// Cancellation and other API errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return &RetryableError{StatusCode: apiErr.StatusCode, Message: err.Error(), Err: err}
		}
		return err
	}
	return &RetryableError{Message: err.Error(), Err: err}
}

// newBackOff returns an exponential policy capped at maxRetries attempts
// after the first, stopped early when ctx is done.
func newBackOff(ctx context.Context, initial time.Duration, maxRetries int) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initial
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxRetries)), ctx)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
