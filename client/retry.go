package client

import (
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// CalculateBackoff returns an exponential backoff delay with jitter for
// the given attempt, capped at maxDelay. Jitter spreads out retries from
// many callers hitting the same limit.
func CalculateBackoff(baseDelay time.Duration, attempt int, maxDelay time.Duration) time.Duration {
	delay := baseDelay * time.Duration(1<<uint(attempt))
	if delay > maxDelay {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay/4) + 1))
	return delay + jitter
}

// ParseRetryAfter extracts the Retry-After duration from a response,
// accepting both integer seconds and HTTP-date forms. Returns 0 when the
// header is absent or unusable.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}
