package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Fetch error taxonomy for the upstream risk API
//
// Every failed context fetch is classified into exactly one of these
// before it reaches the failure policy.

var (
	// ErrFetchTimeout indicates the upstream request exceeded its deadline
	ErrFetchTimeout = errors.New("risk context fetch timed out")

	// ErrUnreachable indicates a connection-level failure (DNS, refused, reset)
	ErrUnreachable = errors.New("risk API unreachable")

	// ErrMalformed indicates an unparsable or type-invalid response body
	ErrMalformed = errors.New("malformed risk context response")

	// ErrRateLimited indicates the local request budget is exhausted
	ErrRateLimited = errors.New("local rate budget exhausted")
)

// HTTPError represents a non-2xx response from the risk API
type HTTPError struct {
	Status int
	Body   string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("risk API returned status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("risk API returned status %d", e.Status)
}

// StatusCode returns the HTTP status code
func (e *HTTPError) StatusCode() int {
	return e.Status
}

// Classify maps a fetch error onto its taxonomy label.
// Used for logging and metrics, never for control flow beyond tagging.
func Classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case Is(err, ErrFetchTimeout):
		return "timeout"
	case Is(err, ErrUnreachable):
		return "unreachable"
	case Is(err, ErrMalformed):
		return "malformed"
	case Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		var httpErr *HTTPError
		if As(err, &httpErr) {
			return "http_error"
		}
		return "unknown"
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
