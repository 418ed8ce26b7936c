package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

var (
	rateLimitWaitTimes   = []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second}
	serverErrorWaitTimes = []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second}
)

// sleep is swapped out in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CallWithRetry runs fn up to attempts times. Only rate-limit and server errors are retried; any
// other error is returned immediately. attempts <= 1 means a single call.
func CallWithRetry[T any](ctx context.Context, attempts int, fn func(context.Context) (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}
	var zero T
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		var wait time.Duration
		switch {
		case isRateLimitError(err):
			wait = waitFor(rateLimitWaitTimes, attempt)
		case isServerError(err):
			wait = waitFor(serverErrorWaitTimes, attempt)
		default:
			return zero, err
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
	if attempts == 1 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func waitFor(schedule []time.Duration, attempt int) time.Duration {
	if attempt < len(schedule) {
		return schedule[attempt]
	}
	return schedule[len(schedule)-1]
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "resource_exhausted")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error") ||
		strings.Contains(errStr, "unavailable")
}
