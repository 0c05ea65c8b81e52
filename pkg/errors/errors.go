package errors

import (
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeAuthorization = "AUTHORIZATION_ERROR"
	CodeValidation    = "VALIDATION_ERROR"
	CodeUpstream      = "UPSTREAM_ERROR"
	CodeCache         = "CACHE_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus is the response status the error maps to. Every typed error
// below inherits it, so callers can match on the interface with errors.As.
func (e *AppError) HTTPStatus() int {
	return e.StatusCode
}

// AuthorizationError is returned by the access gate before any other work runs.
type AuthorizationError struct {
	*AppError
}

func NewAuthorizationError(message string) *AuthorizationError {
	return &AuthorizationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAuthorization,
			StatusCode: http.StatusForbidden,
		},
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: http.StatusUnprocessableEntity,
		},
		Field: field,
		Value: value,
	}
}

// UpstreamError wraps any failure of the video platform API. Transient and
// permanent failures are not distinguished.
type UpstreamError struct {
	*AppError
	Service   string
	Operation string
}

func NewUpstreamError(message, service, operation string, cause error) *UpstreamError {
	return &UpstreamError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeUpstream,
			StatusCode: http.StatusInternalServerError,
			Cause:      cause,
		},
		Service:   service,
		Operation: operation,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: http.StatusInternalServerError,
			Cause:      cause,
		},
		Operation: operation,
		Key:       key,
	}
}
