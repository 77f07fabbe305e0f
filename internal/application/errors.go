package application

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is the application-level error surfaced to the transport layer.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeHashConflict = "IDEMPOTENCY_HASH_CONFLICT"
	ErrCodeInProgress   = "IDEMPOTENCY_IN_PROGRESS"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// NewHashConflictError reports a key reused with a different request payload.
func NewHashConflictError(idempotencyKey string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeHashConflict,
		Message:    fmt.Sprintf("Idempotency key %q was already used with a different request payload", idempotencyKey),
		HTTPStatus: http.StatusConflict,
	}
}

// NewInProgressError reports a non-stale IN_PROGRESS record under contention.
// The client should retry with the same key.
func NewInProgressError(idempotencyKey string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInProgress,
		Message:    fmt.Sprintf("Idempotency key %q is currently being processed. Please retry with the same key", idempotencyKey),
		HTTPStatus: http.StatusConflict,
	}
}

func NewNotFoundError(what string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", what),
		HTTPStatus: http.StatusNotFound,
	}
}

func NewInvalidInputError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
