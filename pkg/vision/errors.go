package vision

import (
	"errors"
	"fmt"
)

// ErrEmptyFrame is returned when Detect is called without image data.
var ErrEmptyFrame = errors.New("vision: empty frame")

// APIError is an error answer from the detection service, either for the
// whole request (HTTP status) or for the single image (status in the body).
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("vision: API error %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited returns true for HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError returns true for HTTP 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request may succeed when repeated.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}
