// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource or session was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden indicates an actor tried to interact with a session it does not own.
	ErrForbidden = errors.New("forbidden")

	// ErrExpired indicates a session passed its idle timeout before the interaction.
	ErrExpired = errors.New("session expired")

	// ErrAlreadyResolved indicates a dialog already produced its outcome.
	ErrAlreadyResolved = errors.New("already resolved")

	// ErrAlreadyReplied indicates a handler tried to answer the same invocation twice.
	ErrAlreadyReplied = errors.New("already replied")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrUnknownCommand indicates no handler is registered for a command name.
	ErrUnknownCommand = errors.New("unknown command")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsForbidden reports whether err is or wraps ErrForbidden.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsExpired reports whether err is or wraps ErrExpired.
func IsExpired(err error) bool { return errors.Is(err, ErrExpired) }

// IsAlreadyResolved reports whether err is or wraps ErrAlreadyResolved.
func IsAlreadyResolved(err error) bool { return errors.Is(err, ErrAlreadyResolved) }

// IsRateLimitExceeded reports whether err is or wraps ErrRateLimitExceeded.
func IsRateLimitExceeded(err error) bool { return errors.Is(err, ErrRateLimitExceeded) }

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsAlreadyReplied reports whether err is or wraps ErrAlreadyReplied.
func IsAlreadyReplied(err error) bool { return errors.Is(err, ErrAlreadyReplied) }

// ValidationError represents input validation failures detected locally,
// before any backend is contacted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// BackendError is a non-2xx answer (or no answer) from a backend collaborator.
// Status is 0 when the request never got a response.
type BackendError struct {
	Backend string
	Status  int
	Message string // human-readable message provided by the backend, if any
	Err     error
}

func (e *BackendError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("backend %s unreachable: %v", e.Backend, e.Err)
	case e.Message != "":
		return fmt.Sprintf("backend %s returned %d: %s", e.Backend, e.Status, e.Message)
	default:
		return fmt.Sprintf("backend %s returned %d", e.Backend, e.Status)
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether the backend rejected the request (4xx).
func (e *BackendError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// NewBackendError creates a new backend error.
func NewBackendError(backend string, status int, message string, err error) *BackendError {
	return &BackendError{
		Backend: backend,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// DecodeError reports a 2xx response whose body did not match the expected
// record shape. It is treated as a client-side error: retrying will not help.
type DecodeError struct {
	Backend string
	Target  string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s from %s: %v", e.Target, e.Backend, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a new decode error.
func NewDecodeError(backend, target string, err error) *DecodeError {
	return &DecodeError{
		Backend: backend,
		Target:  target,
		Err:     err,
	}
}

// AsBackendError extracts a BackendError from err's chain.
func AsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
