// Package llm holds the pieces shared by the remote model clients: HTTP
// status errors and the retry schedule.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError is returned when a model endpoint answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
	RetryAfter string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s failed: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	if body := strings.TrimSpace(e.Body); body != "" {
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		msg += ": " + body
	}
	return msg
}

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Retryable reports whether err is worth another attempt. Context errors
// and client-side status codes are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// Backoff returns the delay before retry number attempt (zero based).
// A Retry-After header given in seconds wins over the exponential schedule.
func Backoff(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 8 {
		attempt = 8
	}
	// exponential backoff capped at 5s
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// Wait sleeps for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs call until it succeeds, fails with a final error, or maxRetries
// additional attempts have been spent.
func Do[T any](ctx context.Context, maxRetries int, call func(context.Context) (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		out, err := call(ctx)
		if err == nil || attempt >= maxRetries || !Retryable(err) {
			return out, err
		}
		var retryAfter string
		var se *StatusError
		if errors.As(err, &se) {
			retryAfter = se.RetryAfter
		}
		if werr := Wait(ctx, Backoff(attempt, retryAfter)); werr != nil {
			return out, err
		}
	}
}
