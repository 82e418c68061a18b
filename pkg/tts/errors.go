package tts

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoAPIKey            = errors.New("tts: API key required")
	ErrNoVoiceID           = errors.New("tts: voice ID required")
	ErrEmptyText           = errors.New("tts: empty text")
	ErrProviderUnavailable = errors.New("tts: no providers available")
)

// maxErrorBody caps how much of an error response is kept as the message.
const maxErrorBody = 4 << 10

// APIError is a non-200 answer from a speech API.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string

	// RetryAfter is the server's Retry-After hint, or 0.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("tts %s: HTTP %d %s: %s", e.Provider, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("tts %s: HTTP %d: %s", e.Provider, e.StatusCode, msg)
}

// IsUnauthorized reports a rejected or missing credential (401 or 403).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable reports whether the same request may succeed later.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// errorDetail pulls a provider specific code and message out of an error body.
// ok is false when the body is not in the provider's format.
type errorDetail func(body []byte) (code, message string, ok bool)

// decodeAPIError reads resp into an *APIError. The caller closes the body.
func decodeAPIError(provider string, resp *http.Response, detail errorDetail) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
	}
	if detail != nil {
		if code, msg, ok := detail(body); ok {
			apiErr.Code, apiErr.Message = code, msg
		}
	}
	return apiErr
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// ProviderError tags an error with the provider that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError tags err with provider. Errors that already name their provider
// are returned unchanged.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	var ae *APIError
	if errors.As(err, &pe) || errors.As(err, &ae) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}
