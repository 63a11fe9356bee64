package utils

import (
	"log/slog"
	"time"
)

// Retry calls fn up to attempts times with a fixed delay between failures and
// returns the first success or the last error. This is the only generic retry
// in the codebase; the HTTP clients carry their own bounded backoff.
func Retry[T any](attempts int, delay time.Duration, fn func() (T, error)) (T, error) {
	var last error
	var zero T

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		last = err

		if attempt < attempts {
			slog.Warn("[Retry] Attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			time.Sleep(delay)
		}
	}

	return zero, last
}
