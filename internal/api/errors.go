// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zainfaisal220/Sumlyzer/internal/pdf"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: message,
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// Validator failure codes surfaced to upload clients.
const (
	CodeWrongExtension = "WRONG_EXTENSION"
	CodeEmptyFile      = "EMPTY_FILE"
	CodeBadSignature   = "BAD_SIGNATURE"
	CodeFileTooLarge   = "FILE_TOO_LARGE"
	CodeCorruptedFile  = "CORRUPTED_FILE"
)

// NewUploadError maps a document validation failure to its API response.
// Structural check failures are 400s except the size cap, which is 413;
// a document the parser cannot open is 422.
func NewUploadError(err error) *APIError {
	var vErr *pdf.ValidationError
	if errors.As(err, &vErr) {
		status := http.StatusBadRequest
		code := ""
		switch vErr.Kind {
		case pdf.KindWrongExtension:
			code = CodeWrongExtension
		case pdf.KindEmptyFile:
			code = CodeEmptyFile
		case pdf.KindBadSignature:
			code = CodeBadSignature
		case pdf.KindTooLarge:
			status = http.StatusRequestEntityTooLarge
			code = CodeFileTooLarge
		default:
			code = "VALIDATION_ERROR"
		}
		return &APIError{Status: status, Code: code, Message: vErr.Message}
	}

	var cErr *pdf.CorruptionError
	if errors.As(err, &cErr) {
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    CodeCorruptedFile,
			Message: cErr.Reason,
			Details: detailOf(cErr.Err),
		}
	}

	return NewInternalError("document validation failed", err)
}

func detailOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	if !c.Response().Committed {
		c.JSON(apiErr.Status, apiErr)
	}
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
