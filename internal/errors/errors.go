package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a careerbridge error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrUnauthenticated     ErrorCode = "UNAUTHENTICATED"      // 401
	ErrInvalidCredential   ErrorCode = "INVALID_CREDENTIAL"   // 403
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrValidationFailed    ErrorCode = "VALIDATION_FAILED"    // 422
	ErrInternal            ErrorCode = "INTERNAL"             // 500
	ErrUpstreamRejected    ErrorCode = "UPSTREAM_REJECTED"    // upstream status passthrough
	ErrUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE" // 502
)

// BridgeError represents a structured error with code, status, and details.
type BridgeError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BridgeError {
	return &BridgeError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthenticated creates a 401 error for operations that need an active identity.
func NewUnauthenticated() *BridgeError {
	return &BridgeError{
		Code:    ErrUnauthenticated,
		Status:  401,
		Message: "no active user; log in first",
	}
}

// NewInvalidCredential creates a 403 error for a rejected admin credential.
func NewInvalidCredential(msg string) *BridgeError {
	return &BridgeError{
		Code:    ErrInvalidCredential,
		Status:  403,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(kind, identifier string) *BridgeError {
	return &BridgeError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewValidationFailed creates a 422 error carrying every failed field message.
func NewValidationFailed(messages []string) *BridgeError {
	return &BridgeError{
		Code:    ErrValidationFailed,
		Status:  422,
		Message: "please fix the following: " + strings.Join(messages, ", "),
		Details: map[string]any{"errors": messages},
	}
}

// NewUpstreamRejected wraps a non-2xx answer from the backend API.
func NewUpstreamRejected(status int, msg string) *BridgeError {
	if msg == "" {
		msg = fmt.Sprintf("backend responded with status %d", status)
	}
	return &BridgeError{
		Code:    ErrUpstreamRejected,
		Status:  status,
		Message: msg,
		Details: map[string]any{"upstream_status": status},
	}
}

// NewUpstreamUnavailable creates a 502 error when the backend cannot be reached.
func NewUpstreamUnavailable(err error) *BridgeError {
	msg := "backend unavailable"
	if err != nil {
		msg = fmt.Sprintf("backend unavailable: %v", err)
	}
	return &BridgeError{
		Code:    ErrUpstreamUnavailable,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *BridgeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BridgeError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is, or wraps, a BridgeError with the given code.
func Is(err error, code ErrorCode) bool {
	var bErr *BridgeError
	if stderrors.As(err, &bErr) {
		return bErr.Code == code
	}
	return false
}

// Messages returns the field messages of a VALIDATION_FAILED error, or nil.
func Messages(err error) []string {
	var bErr *BridgeError
	if !stderrors.As(err, &bErr) || bErr.Code != ErrValidationFailed {
		return nil
	}
	msgs, _ := bErr.Details["errors"].([]string)
	return msgs
}
