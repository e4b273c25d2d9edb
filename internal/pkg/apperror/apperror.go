// Package apperror defines the failure taxonomy returned by the plan library.
// Every facade call either succeeds or returns an *AppError carrying one of the
// types below; callers branch with errors.Is against the exported sentinels.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	TypeValidation       ErrorType = "validation_error"
	TypeNotFound         ErrorType = "not_found"
	TypeForbidden        ErrorType = "forbidden"
	TypeStoreUnavailable ErrorType = "store_unavailable"
	TypeStorageDisabled  ErrorType = "storage_disabled"
	TypeInternal         ErrorType = "internal_error"
)

// Sentinels for errors.Is. An *AppError matches the sentinel of its type.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStorageDisabled  = errors.New("storage disabled")
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying store/driver error, if any.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by error type.
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Type == TypeValidation
	case ErrNotFound:
		return e.Type == TypeNotFound
	case ErrForbidden:
		return e.Type == TypeForbidden
	case ErrStoreUnavailable:
		return e.Type == TypeStoreUnavailable
	case ErrStorageDisabled:
		return e.Type == TypeStorageDisabled
	}
	return false
}

// Retryable reports whether the caller may retry the same request unchanged.
func (e *AppError) Retryable() bool {
	return e.Type == TypeStoreUnavailable
}

func newError(t ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    t,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(TypeValidation, http.StatusBadRequest, message, details)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newError(TypeNotFound, http.StatusNotFound, message, details)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string, details ...string) *AppError {
	return newError(TypeForbidden, http.StatusForbidden, message, details)
}

// NewStorageDisabledError reports that no object storage collaborator is configured.
func NewStorageDisabledError(message string) *AppError {
	return newError(TypeStorageDisabled, http.StatusServiceUnavailable, message, nil)
}

// NewStoreUnavailableError wraps a backing store failure. The facade never
// retries these itself.
func NewStoreUnavailableError(message string, err error) *AppError {
	e := newError(TypeStoreUnavailable, http.StatusServiceUnavailable, message, nil)
	e.Err = err
	return e
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	e := newError(TypeInternal, http.StatusInternalServerError, message, nil)
	e.Err = err
	return e
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HTTPStatus maps any error to the status code the API answers with.
func HTTPStatus(err error) int {
	if appErr := GetAppError(err); appErr != nil && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
