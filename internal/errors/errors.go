// Package errors provides the error taxonomy shared by the board, the
// persistence adapter and the AI completion client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes callers are expected to branch on.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrNotConfigured      = errors.New("ai completion not configured")
	ErrServiceUnavailable = errors.New("completion service unavailable")
	ErrMalformedResponse  = errors.New("malformed completion response")
)

// APIError represents a non-success reply from the completion endpoint.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

// Unwrap exposes the wrapped cause. An APIError without an explicit cause is
// a ServiceUnavailable failure.
func (e *APIError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrServiceUnavailable
}

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// Validation wraps ErrValidation with a field-specific message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// Malformed wraps ErrMalformedResponse with the decoding failure.
func Malformed(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMalformedResponse, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, what, err)
}

// Unavailable wraps ErrServiceUnavailable around a transport failure.
func Unavailable(err error) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
}

// IsUserError reports whether err stems from caller input rather than a
// dependency failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}
