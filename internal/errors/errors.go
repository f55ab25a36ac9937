package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an eblog error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrConflict         ErrorCode = "CONFLICT"          // 409
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503
)

// StatusClientClosedRequest is the non-standard status used for cancelled requests.
const StatusClientClosedRequest = 499

// BlogError represents a structured error with code, status, and details.
type BlogError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *BlogError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *BlogError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for missing or invalid input.
func NewInvalidRequest(msg string) *BlogError {
	return &BlogError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when no post matches the identifier.
func NewNotFound(identifier string) *BlogError {
	return &BlogError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("post not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConflict creates a 409 error for uniqueness violations that a retry could not resolve.
func NewConflict(msg string) *BlogError {
	return &BlogError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCancelled creates a 499 error when the caller abandoned the operation.
func NewCancelled(operation string) *BlogError {
	return &BlogError{
		Code:    ErrCancelled,
		Status:  StatusClientClosedRequest,
		Message: fmt.Sprintf("%s cancelled", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewStoreUnavailable creates a 503 error for a persistence failure.
// Context cancellation is reported as CANCELLED instead.
func NewStoreUnavailable(err error) *BlogError {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		e := NewCancelled("store call")
		e.cause = err
		return e
	}
	msg := "store unavailable"
	if err != nil {
		msg = fmt.Sprintf("store unavailable: %v", err)
	}
	return &BlogError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *BlogError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BlogError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error (or anything it wraps) is a BlogError with the given code.
func Is(err error, code ErrorCode) bool {
	var bErr *BlogError
	if stderrors.As(err, &bErr) {
		return bErr.Code == code
	}
	return false
}

// As extracts a BlogError from err. Non-BlogErrors are wrapped as INTERNAL.
func As(err error) *BlogError {
	var bErr *BlogError
	if stderrors.As(err, &bErr) {
		return bErr
	}
	return NewInternal(err)
}
