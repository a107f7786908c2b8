// Package types provides common error types for proper error propagation
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes across the application
type ErrorCode string

const (
	// General errors
	ErrorCodeUnknown    ErrorCode = "UNKNOWN_ERROR"
	ErrorCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrorCodeTimeout    ErrorCode = "TIMEOUT"
	ErrorCodeCancelled  ErrorCode = "CANCELLED"

	// Document store errors
	ErrorCodeStore ErrorCode = "STORE_ERROR"

	// Metadata provider errors
	ErrorCodeUpstreamEmpty ErrorCode = "UPSTREAM_EMPTY"
	ErrorCodeUpstream      ErrorCode = "UPSTREAM_ERROR"
)

// ErrorSeverity indicates the severity of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// AppError represents a structured error with metadata
type AppError struct {
	Code        ErrorCode              `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Severity    ErrorSeverity          `json:"severity"`
	HTTPStatus  int                    `json:"http_status"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	RequestID   string                 `json:"request_id,omitempty"`
	UserMessage string                 `json:"user_message,omitempty"`
	Retryable   bool                   `json:"retryable"`
	RetryAfter  *time.Duration         `json:"retry_after,omitempty"`

	Cause       error  `json:"-"`
	CauseString string `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRequestID adds a request ID to the error
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// WithUserMessage sets a user-friendly error message
func (e *AppError) WithUserMessage(message string) *AppError {
	e.UserMessage = message
	return e
}

// WithRetryAfter marks the error as retryable after a specific duration
func (e *AppError) WithRetryAfter(duration time.Duration) *AppError {
	e.Retryable = true
	e.RetryAfter = &duration
	return e
}

// ToJSON converts the error to JSON
func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(e)
	return data
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Severity:   SeverityError,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewAppErrorWithCause creates an error with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, httpStatus int, cause error) *AppError {
	err := NewAppError(code, message, httpStatus)
	err.Cause = cause
	if cause != nil {
		err.CauseString = cause.Error()
	}
	return err
}

// NewValidationError creates a validation error
func NewValidationError(message string, details ...string) *AppError {
	err := NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
	if len(details) > 0 {
		err.Details = details[0]
	}
	err.Severity = SeverityWarning
	return err
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *AppError {
	err := NewAppError(
		ErrorCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
	).WithContext("resource", resource).WithContext("id", id)
	err.Severity = SeverityInfo
	return err
}

// NewStoreError wraps a transport or auth failure against the document store
func NewStoreError(op string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeStore, "document store unavailable", http.StatusServiceUnavailable, cause)
	err.WithContext("op", op)
	return err
}

// NewUpstreamEmptyError reports that a metadata provider had no usable match
func NewUpstreamEmptyError(provider string, query string) *AppError {
	err := NewAppError(
		ErrorCodeUpstreamEmpty,
		fmt.Sprintf("%s returned no data", provider),
		http.StatusNotFound,
	).WithContext("provider", provider).WithContext("query", query)
	err.Severity = SeverityInfo
	return err
}

// NewUpstreamError reports a failed call to a metadata provider
func NewUpstreamError(provider string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeUpstream, fmt.Sprintf("%s request failed", provider), http.StatusBadGateway, cause)
	err.WithContext("provider", provider)
	err.Severity = SeverityWarning
	err.Retryable = true
	return err
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeInternal, message, http.StatusInternalServerError, cause)
	err.Severity = SeverityCritical
	return err
}

// HTTPStatusFromErrorCode maps error codes to HTTP status codes
func HTTPStatusFromErrorCode(code ErrorCode) int {
	switch code {
	case ErrorCodeValidation:
		return http.StatusBadRequest
	case ErrorCodeNotFound, ErrorCodeUpstreamEmpty:
		return http.StatusNotFound
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeCancelled:
		return http.StatusRequestTimeout
	case ErrorCodeStore:
		return http.StatusServiceUnavailable
	case ErrorCodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// CodeOf returns the ErrorCode carried by err, or ErrorCodeUnknown.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeUnknown
}
