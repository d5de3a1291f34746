package common

import (
	"errors"
	"net/http"
)

// Canonical error codes rendered in the error envelope.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInternal        = "INTERNAL"
	CodeRateLimited     = "RATE_LIMITED"
	CodeTooLarge        = "PAYLOAD_TOO_LARGE"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// InvalidArgument wraps err as a client error (HTTP 400).
func InvalidArgument(message string, err error, details any) *AppError {
	return &AppError{Code: CodeInvalidArgument, Message: message, HTTPStatus: http.StatusBadRequest, Err: err, Details: details}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
