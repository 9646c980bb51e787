package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrAddressConflict indicates the inbox address is already in use
	ErrAddressConflict = errors.New("address already in use")

	// ErrAddressSpaceExhausted indicates address generation ran out of retries
	ErrAddressSpaceExhausted = errors.New("address generation retries exhausted")

	// ErrDomainNotVerified indicates the domain has not completed verification
	ErrDomainNotVerified = errors.New("domain is not verified")

	// ErrInboxNotFound indicates the inbox was not found
	ErrInboxNotFound = errors.New("inbox not found")

	// ErrMessageNotFound indicates the message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrThreadNotFound indicates the thread was not found
	ErrThreadNotFound = errors.New("thread not found")

	// ErrDomainNotFound indicates the domain was not found
	ErrDomainNotFound = errors.New("domain not found")

	// ErrWebhookNotFound indicates the webhook was not found
	ErrWebhookNotFound = errors.New("webhook not found")

	// ErrQuotaExceeded indicates the organization's message quota is spent
	ErrQuotaExceeded = errors.New("message quota exceeded")

	// ErrDispatchFailed indicates the transmission provider rejected a send
	ErrDispatchFailed = errors.New("message dispatch failed")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicateEntry    = "DUPLICATE_ENTRY"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeAddressConflict   = "ADDRESS_CONFLICT"
	CodeAddressExhausted  = "ADDRESS_SPACE_EXHAUSTED"
	CodeDomainNotVerified = "DOMAIN_NOT_VERIFIED"
	CodeQuotaExceeded     = "QUOTA_EXCEEDED"
	CodeDispatchFailed    = "DISPATCH_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternalError     = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInboxNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrThreadNotFound) ||
		errors.Is(err, ErrDomainNotFound) ||
		errors.Is(err, ErrWebhookNotFound)
}

// IsConflict checks if the error is a uniqueness conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateEntry) || errors.Is(err, ErrAddressConflict)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsQuotaExceeded checks if the error is a quota rejection
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAddressConflict):
		return CodeAddressConflict
	case errors.Is(err, ErrAddressSpaceExhausted):
		return CodeAddressExhausted
	case errors.Is(err, ErrDomainNotVerified):
		return CodeDomainNotVerified
	case errors.Is(err, ErrQuotaExceeded):
		return CodeQuotaExceeded
	case errors.Is(err, ErrDispatchFailed):
		return CodeDispatchFailed
	case IsNotFound(err):
		return CodeNotFound
	case IsConflict(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	default:
		return CodeInternalError
	}
}
