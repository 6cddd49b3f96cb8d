package common

import (
	"errors"
	"net/http"
)

// Canonical error codes surfaced by the API.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeExpiredProduct       = "EXPIRED_PRODUCT"
	CodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
	CodeValidation           = "VALIDATION"
	CodeIllegalState         = "ILLEGAL_STATE"
	CodeInternal             = "INTERNAL"
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

// Invalid builds a validation AppError with a field detail.
func Invalid(field, message string, err error) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    map[string]any{"field": field},
	}
}

// NotFound builds a not-found AppError for the given entity kind.
func NotFound(kind string, err error) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    kind + " not found",
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
