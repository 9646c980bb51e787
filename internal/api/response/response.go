// Package response renders the JSON envelope every API endpoint uses.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/inboxkit/inboxkit/internal/errors"
)

// APIResponse is the envelope for successful responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is the envelope for failed responses. Code carries a
// machine-readable error class for API clients.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func SuccessWithMessage(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Message: message})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Error classifies err through the application error codes and picks
// the matching HTTP status.
func Error(c echo.Context, err error) error {
	code := apperrors.GetErrorCode(err)
	return c.JSON(statusForCode(code), ErrorResponse{
		Success: false,
		Error:   err.Error(),
		Code:    code,
	})
}

func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeInvalidInput,
	})
}

func Unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeUnauthorized,
	})
}

func InternalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeInternalError,
	})
}

var statusByCode = map[string]int{
	apperrors.CodeNotFound:          http.StatusNotFound,
	apperrors.CodeDuplicateEntry:    http.StatusConflict,
	apperrors.CodeAddressConflict:   http.StatusConflict,
	apperrors.CodeInvalidInput:      http.StatusBadRequest,
	apperrors.CodeDomainNotVerified: http.StatusBadRequest,
	apperrors.CodeQuotaExceeded:     http.StatusTooManyRequests,
	apperrors.CodeDispatchFailed:    http.StatusBadGateway,
	apperrors.CodeUnauthorized:      http.StatusUnauthorized,
	apperrors.CodeForbidden:         http.StatusForbidden,
}

func statusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
