package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError is a provider failure with enough detail to decide on a retry.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
	// Permanent marks quota exhaustion, which retrying soon will not fix.
	Permanent bool
	cause     error
}

func newAPIError(status int, typ, code, message string, cause error) *APIError {
	e := &APIError{
		StatusCode: status,
		Type:       typ,
		Code:       code,
		Message:    message,
		cause:      cause,
	}
	lowered := strings.ToLower(code + " " + typ + " " + message)
	e.Permanent = strings.Contains(lowered, "insufficient_quota") || strings.Contains(lowered, "billing")
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// IsRateLimitError reports a transient 429.
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.Permanent
	}
	return false
}

// IsQuotaError reports exhausted quota or billing problems.
func IsQuotaError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Permanent
}

// IsRetryable reports whether a later attempt may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Permanent {
			return true
		}
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	// Transport failures carry no status.
	return true
}

// GetRetryDelay is an exponential backoff whose base and ceiling depend on
// the kind of failure.
func GetRetryDelay(err error, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		attempt = 10
	}
	factor := time.Duration(1 << uint(attempt))

	base, ceiling := 5*time.Second, 5*time.Minute
	switch {
	case IsQuotaError(err):
		base, ceiling = time.Hour, 24*time.Hour
	case IsRateLimitError(err):
		base, ceiling = time.Minute, 15*time.Minute
	}

	if delay := base * factor; delay < ceiling {
		return delay
	}
	return ceiling
}
