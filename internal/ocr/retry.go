package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	Engine  string
	Message string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable %s error: %s", e.Engine, e.Message)
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Retrying wraps a Recognizer and retries transient failures with
// exponential backoff and jitter.
type Retrying struct {
	Recognizer
	Attempts uint
	Delay    time.Duration
	Log      *slog.Logger
}

// WithRetry wraps r so transient failures are retried up to attempts times.
func WithRetry(r Recognizer, attempts uint, log *slog.Logger) *Retrying {
	if attempts == 0 {
		attempts = 1
	}
	return &Retrying{Recognizer: r, Attempts: attempts, Delay: time.Second, Log: log}
}

func (r *Retrying) Recognize(ctx context.Context, page Page) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			return r.Recognizer.Recognize(ctx, page)
		},
		retry.Context(ctx),
		retry.Attempts(r.Attempts),
		retry.Delay(r.Delay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(r.Delay/2+time.Millisecond),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if r.Log != nil {
				r.Log.Warn("retryable ocr error", "page", page.Number, "attempt", n, "error", err)
			}
		}),
	)
}
