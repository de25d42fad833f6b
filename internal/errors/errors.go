package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeQuotaExceeded = "QUOTA_EXCEEDED"
	ErrCodeBreakerOpen   = "BREAKER_OPEN"
	ErrCodeRemote        = "REMOTE_ERROR"
	ErrCodeNoData        = "NO_DATA"
	ErrCodePersistence   = "PERSISTENCE_ERROR"
	ErrCodeInvalidState  = "INVALID_STATE"
)

// AppError represents an application error with a machine-readable code.
type AppError struct {
	Code    string // Error code (e.g., "QUOTA_EXCEEDED", "NO_DATA")
	Message string // Human-readable error message
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is, or wraps, an *AppError carrying the code.
func HasCode(err error, code string) bool {
	var e *AppError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsQuotaExceeded reports whether err marks a rate/daily quota condition.
func IsQuotaExceeded(err error) bool { return HasCode(err, ErrCodeQuotaExceeded) }

// IsBreakerOpen reports whether err marks a rejected call on an open breaker.
func IsBreakerOpen(err error) bool { return HasCode(err, ErrCodeBreakerOpen) }

// IsNoData reports whether err marks an unrecoverable no-candidates condition.
func IsNoData(err error) bool { return HasCode(err, ErrCodeNoData) }

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal error",
		Err:     err,
	}
}

// NewQuotaExceededError creates a new QUOTA_EXCEEDED error. Used both for the
// local daily cap and for a remote 429.
func NewQuotaExceededError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeQuotaExceeded,
		Message: message,
	}
}

// NewBreakerOpenError creates a new BREAKER_OPEN error
func NewBreakerOpenError(retryIn string) *AppError {
	return &AppError{
		Code:    ErrCodeBreakerOpen,
		Message: fmt.Sprintf("circuit breaker open, retry in %s", retryIn),
	}
}

// NewRemoteError creates a new REMOTE_ERROR wrapping a transient remote failure
func NewRemoteError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeRemote,
		Message: message,
		Err:     err,
	}
}

// NewNoDataError creates a new NO_DATA error. Fatal for the current question:
// cache is empty and the remote source is unreachable.
func NewNoDataError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNoData,
		Message: message,
	}
}

// NewPersistenceError creates a new PERSISTENCE_ERROR. Callers treat these as
// best-effort: the feature degrades, it does not crash.
func NewPersistenceError(op string, err error) *AppError {
	return &AppError{
		Code:    ErrCodePersistence,
		Message: fmt.Sprintf("persistence failed: %s", op),
		Err:     err,
	}
}

// NewInvalidStateError creates a new INVALID_STATE error for operations called
// outside their allowed lifecycle state.
func NewInvalidStateError(op string, state string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("%s not allowed in state %s", op, state),
	}
}
