// Package retry repeats whole open-requests for callers that want it. The
// fetch path itself never retries.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/NamanBalaji/urlconf/internal/errors"
	"github.com/NamanBalaji/urlconf/internal/logger"
)

const maxDelay = 2 * time.Minute

// Backoff returns the delay before retry number retryCount (0-based):
// baseDelay doubled per retry with +/-10% jitter, capped at two minutes.
func Backoff(retryCount int, baseDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << uint(retryCount))

	jitter := time.Duration(rand.Float64() * float64(delay) * 0.2) // +/- 10%
	finalDelay := delay + jitter - (time.Duration(float64(delay) * 0.1))

	if finalDelay > maxDelay || finalDelay < 0 {
		finalDelay = maxDelay
	}

	return finalDelay
}

// Retryable reports whether err is worth another attempt. Only transport
// failures are: parse errors and bad response codes will not change.
func Retryable(err error) bool {
	return errors.IsTransportError(err)
}

// Do calls fn once plus up to retries more times while it fails with a
// retryable error.
func Do(ctx context.Context, retries int, baseDelay time.Duration, fn func(context.Context) error) error {
	var err error

	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil || attempt >= retries || !Retryable(err) {
			return err
		}

		delay := Backoff(attempt, baseDelay)
		logger.Warnf("Attempt %d failed, retrying in %s: %v", attempt+1, delay, err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
