// Package errors provides the unified error type and factory functions for
// the plotproof service.  Every layer (domain, application, infrastructure,
// interfaces) uses AppError as the single carrier for structured error
// information, enabling consistent HTTP responses and logging.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout plotproof.
// It satisfies the standard error interface and supports Go 1.13+ wrapping so
// that errors.Is / errors.As / errors.Unwrap work across all layers.
//
// Usage:
//
//	return errors.New(errors.ErrCodeInvalidGeometry, "polygon ring has fewer than 3 distinct vertices")
//	return errors.Wrap(err, errors.ErrCodeOracleUnreachable, "gfw query failed")
//	return errors.NotFound("analysis session not found").WithDetail("token=" + token)
type AppError struct {
	// Code is the typed error code identifying the failure category.
	Code ErrorCode

	// Message is the primary human-readable description, suitable for
	// inclusion in API responses.
	Message string

	// Detail carries supplementary context (plot IDs, layer names, etc.)
	// that aids debugging without leaking internals to end users.
	Detail string

	// Cause is the underlying error, enabling errors.Is / errors.As
	// traversal of the full chain.
	Cause error
}

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>", detail omitted when empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.
// Safe to call on a nil pointer.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithDetailf is WithDetail with fmt.Sprintf semantics.
func (e *AppError) WithDetailf(format string, args ...interface{}) *AppError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// New constructs an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf constructs an AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an AppError that records err as its cause.  A nil err
// yields a plain AppError so call sites do not need to branch.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// NotFound constructs an AppError with ErrCodeNotFound.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// Validation constructs an AppError with ErrCodeValidation.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Internal constructs an AppError with ErrCodeInternal.
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// Timeout constructs an AppError with ErrCodeTimeout.
func Timeout(message string) *AppError {
	return New(ErrCodeTimeout, message)
}

// asAppError extracts an *AppError from anywhere in the chain.
func asAppError(err error) (*AppError, bool) {
	var app *AppError
	if errors.As(err, &app) {
		return app, true
	}
	return nil, false
}

// IsCode reports whether err (or any error in its chain) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	if app, ok := asAppError(err); ok {
		return app.Code == code
	}
	return false
}

// IsNotFound reports whether err represents a not-found condition.
func IsNotFound(err error) bool { return IsCode(err, ErrCodeNotFound) }

// IsValidation reports whether err represents a validation failure.
func IsValidation(err error) bool { return IsCode(err, ErrCodeValidation) }

// IsTimeout reports whether err represents a timeout.
func IsTimeout(err error) bool { return IsCode(err, ErrCodeTimeout) }

// IsConflict reports whether err represents a conflict.
func IsConflict(err error) bool { return IsCode(err, ErrCodeConflict) }

// IsCanceled reports whether err represents an abandoned operation.
func IsCanceled(err error) bool { return IsCode(err, ErrCodeCanceled) }

// CodeOf returns the ErrorCode carried by err, or ErrCodeInternal when err
// carries no AppError.
func CodeOf(err error) ErrorCode {
	if app, ok := asAppError(err); ok {
		return app.Code
	}
	return ErrCodeInternal
}
