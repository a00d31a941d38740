package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TransientError indicates a backend fault that may succeed on retry, such as
// a rate limit, a server error, or a timeout. It is the only extraction error
// class eligible for retry by callers.
type TransientError struct {
	Err        error
	Provider   string
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s transient failure (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a TransientError. If retryAfterSecs is 0,
// defaults to 60s.
func NewTransientError(provider string, err error, retryAfterSecs int) *TransientError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &TransientError{
		Err:        err,
		Provider:   provider,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
	}
}

// InvalidResponseError indicates the backend returned content that does not
// validate against the target schema. Not retryable at this layer.
type InvalidResponseError struct {
	Err      error
	Provider string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("%s returned invalid response: %v", e.Provider, e.Err)
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}

// ContentPolicyError indicates the backend refused the request on policy
// grounds. Never retryable.
type ContentPolicyError struct {
	Err      error
	Provider string
}

func (e *ContentPolicyError) Error() string {
	return fmt.Sprintf("%s refused request (content policy): %v", e.Provider, e.Err)
}

func (e *ContentPolicyError) Unwrap() error {
	return e.Err
}

// ConfigError indicates bad credentials or an otherwise unusable provider
// configuration. Fatal; propagates immediately.
type ConfigError struct {
	Err      error
	Provider string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s configuration error: %v", e.Provider, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ClassifyHTTPError maps a non-200 backend response to the extraction error
// taxonomy. 401/403 is a credentials problem, 429 and 5xx are transient, 400
// with a policy refusal marker is a content-policy rejection, anything else
// is an invalid response.
func ClassifyHTTPError(provider string, status int, retryAfterHeader string, body []byte) error {
	baseErr := fmt.Errorf("%s API error (status %d): %s", provider, status, truncate(string(body), 500))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ConfigError{Err: baseErr, Provider: provider}
	case status == http.StatusTooManyRequests:
		return NewTransientError(provider, baseErr, ParseRetryAfterHeader(retryAfterHeader))
	case status >= http.StatusInternalServerError:
		return NewTransientError(provider, baseErr, 0)
	case looksLikePolicyRefusal(body):
		return &ContentPolicyError{Err: baseErr, Provider: provider}
	default:
		return &InvalidResponseError{Err: baseErr, Provider: provider}
	}
}

// ClassifyTransportError maps a request transport failure. Context deadline
// and cancellation are treated as transient per the extractor contract: a
// timed-out call fails its own slot without cancelling siblings.
func ClassifyTransportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTransientError(provider, err, 0)
	}
	return NewTransientError(provider, fmt.Errorf("calling %s API: %w", provider, err), 0)
}

func looksLikePolicyRefusal(body []byte) bool {
	s := strings.ToLower(string(body))
	return strings.Contains(s, "content_policy") ||
		strings.Contains(s, "content policy") ||
		strings.Contains(s, "safety") && strings.Contains(s, "blocked")
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
