package errors

import (
	"errors"
	"fmt"
)

// ErrorWrapper attaches module/operation context and a user-facing message
// to errors raised inside a command handler.
type ErrorWrapper struct {
	operation string
	module    string
}

// NewWrapper creates a new error wrapper with operation and module context.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{
		module:    module,
		operation: operation,
	}
}

// Wrap wraps an error with operation context.
// Returns nil if err is nil.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Operation:   w.operation,
		Module:      w.module,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// Wrapf wraps an error with a formatted user message.
func (w *ErrorWrapper) Wrapf(err error, userMessageFormat string, args ...any) error {
	if err == nil {
		return nil
	}
	return w.Wrap(err, fmt.Sprintf(userMessageFormat, args...))
}

// WrappedError contains both internal error details and user-facing message.
type WrappedError struct {
	Operation   string // e.g. "transfer", "place_bet"
	Module      string // e.g. "economy", "bet"
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns the message that can be shown to the actor.
// The outermost WrappedError wins, then a ValidationError's message, then
// a backend-provided message on a 4xx BackendError. Returns "" when err
// carries nothing user-safe.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) && wrapped.UserMessage != "" {
		return wrapped.UserMessage
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	var backend *BackendError
	if errors.As(err, &backend) && backend.IsClientError() {
		return backend.Message
	}
	return ""
}
