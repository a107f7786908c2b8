// Package api provides error handling utilities for HTTP APIs
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/catalog/internal/logger"
	"github.com/mantonx/catalog/internal/types"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	Success bool         `json:"success"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	UserMessage string                 `json:"user_message,omitempty"`
	Retryable   bool                   `json:"retryable"`
	RetryAfter  int                    `json:"retry_after,omitempty"` // seconds
	Context     map[string]interface{} `json:"context,omitempty"`
	RequestID   string                 `json:"request_id,omitempty"`
}

// AppErrorConverter is implemented by module errors that know their
// application error shape.
type AppErrorConverter interface {
	ToAppError() *types.AppError
}

// AsAppError resolves err to an AppError, falling back to an internal error.
func AsAppError(err error) *types.AppError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var conv AppErrorConverter
	if errors.As(err, &conv) {
		return conv.ToAppError()
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewAppErrorWithCause(types.ErrorCodeTimeout, "operation timed out", http.StatusGatewayTimeout, err)
	case errors.Is(err, context.Canceled):
		return types.NewAppErrorWithCause(types.ErrorCodeCancelled, "operation cancelled", http.StatusRequestTimeout, err)
	}

	return types.NewInternalError(err.Error(), err)
}

// RespondWithError sends a structured error response
func RespondWithError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}

	appErr := AsAppError(err)

	response := ErrorResponse{
		Success: false,
		Error: ErrorDetails{
			Code:        string(appErr.Code),
			Message:     appErr.Message,
			Details:     appErr.Details,
			UserMessage: appErr.UserMessage,
			Retryable:   appErr.Retryable,
			Context:     appErr.Context,
			RequestID:   requestID,
		},
	}

	if appErr.RetryAfter != nil {
		response.Error.RetryAfter = int(appErr.RetryAfter.Seconds())
		c.Header("Retry-After", strings.TrimSpace(appErr.RetryAfter.String()))
	}

	logError(appErr, requestID)

	c.JSON(appErr.HTTPStatus, response)
}

// RespondWithValidationError sends a validation error response
func RespondWithValidationError(c *gin.Context, message string, details ...string) {
	RespondWithError(c, types.NewValidationError(message, details...))
}

// RespondWithNotFound sends a not found error response
func RespondWithNotFound(c *gin.Context, resource string, id string) {
	RespondWithError(c, types.NewNotFoundError(resource, id))
}

// logError logs the error with appropriate severity
func logError(err *types.AppError, requestID string) {
	fields := []interface{}{
		"error_code", err.Code,
		"error_message", err.Message,
		"request_id", requestID,
	}

	if err.Details != "" {
		fields = append(fields, "details", err.Details)
	}

	for k, v := range err.Context {
		fields = append(fields, k, v)
	}

	if err.Cause != nil {
		fields = append(fields, "cause", err.Cause.Error())
	}

	switch err.Severity {
	case types.SeverityCritical, types.SeverityError:
		logger.Error("request failed", fields...)
	case types.SeverityWarning:
		logger.Warn("request failed", fields...)
	default:
		logger.Debug("request failed", fields...)
	}
}

// ErrorMiddleware is a middleware that recovers from panics and handles errors
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var err error
				switch v := r.(type) {
				case error:
					err = v
				case string:
					err = errors.New(v)
				default:
					err = errors.New("unknown panic")
				}

				appErr := types.NewInternalError("panic recovered", err)

				logger.Error("panic recovered",
					"error", err,
					"request_path", c.Request.URL.Path,
					"request_method", c.Request.Method,
				)

				RespondWithError(c, appErr)
				c.Abort()
			}
		}()

		c.Next()
	}
}
