package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorCode classifies lifecycle failures.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "not_found"
	CodeForbidden    ErrorCode = "forbidden"
	CodeConflict     ErrorCode = "conflict"
	CodeInvalidInput ErrorCode = "invalid_input"
	CodeInvalidState ErrorCode = "invalid_state"
	CodeInternal     ErrorCode = "internal"
)

// AppError carries a taxonomy code and a human readable message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return newAppError(CodeNotFound, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newAppError(CodeForbidden, format, args...)
}

func Conflict(format string, args ...any) error {
	return newAppError(CodeConflict, format, args...)
}

func InvalidInput(format string, args ...any) error {
	return newAppError(CodeInvalidInput, format, args...)
}

func InvalidState(format string, args ...any) error {
	return newAppError(CodeInvalidState, format, args...)
}

// Internal wraps an unexpected failure, keeping the cause for logs.
func Internal(err error, format string, args ...any) error {
	e := newAppError(CodeInternal, format, args...)
	e.Err = err
	return e
}

// CodeOf returns the taxonomy code of err, or CodeInternal for untyped errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error to its response status.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    CodeInternal,
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// RespondError renders err with the status its code maps to. Internal
// causes are logged but never echoed to the client.
func RespondError(c *gin.Context, err error) {
	status := HTTPStatus(err)
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code == CodeInternal {
		GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, ErrorResponse{Code: CodeInternal, Message: "Internal Server Error"})
		return
	}
	GetLogger().Debug("request rejected", zap.String("path", c.FullPath()), zap.String("code", string(appErr.Code)), zap.String("message", appErr.Message))
	c.JSON(status, ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}
