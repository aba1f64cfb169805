package client

import (
	"errors"
	"fmt"
	"time"
)

// APIError is a non-2xx response from the Code Assist API, carrying the
// provider status and raw body for diagnostics.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// RateLimitError is a 429 from the provider. RetryAfter is the parsed
// Retry-After header, zero when absent.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded (retry after %v): %s", e.RetryAfter, e.Message)
	}
	return "rate limit exceeded: " + e.Message
}

// PermissionError is a 403 that survived the transport's auth retry; it is
// terminal, not retryable.
type PermissionError struct {
	Message string
	Body    string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Message
}

// OnboardingError indicates Code Assist project provisioning failed or did
// not complete within the polling bound.
type OnboardingError struct {
	TierID  string
	Message string
}

func (e *OnboardingError) Error() string {
	return fmt.Sprintf("code assist onboarding for tier %q failed: %s", e.TierID, e.Message)
}

// StreamError is a provider-reported error payload observed mid-stream.
// Chunks yielded before it remain valid.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Message
}

// IsRetryableStatus reports whether an HTTP status is an authorization
// failure the transport retries once with fresh credentials.
func IsRetryableStatus(code int) bool {
	return code == 401 || code == 403
}

// IsRateLimit reports whether err is a rate-limit failure.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
