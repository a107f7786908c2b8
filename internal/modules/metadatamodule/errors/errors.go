// Package errors provides structured error handling for the metadata module.
package errors

import (
	"errors"
	"fmt"

	"github.com/mantonx/catalog/internal/types"
)

// ErrorType classifies metadata errors
type ErrorType string

const (
	ErrorTypeEmpty      ErrorType = "empty"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeValidation ErrorType = "validation"
)

// Sentinel errors
var (
	ErrNoData          = errors.New("upstream returned no data")
	ErrUpstreamStatus  = errors.New("upstream returned non-200 status")
	ErrMissingAPIKey   = errors.New("api key not configured")
	ErrUnsupportedType = errors.New("unsupported item type")
	ErrMissingID       = errors.New("external id is required")
)

// MetadataError provides structured error information with context
type MetadataError struct {
	Type     ErrorType
	Op       string
	Provider string
	Query    string
	Err      error
}

// Error implements the error interface
func (e *MetadataError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s error in %s [%s]: %v", e.Type, e.Op, e.Provider, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Type, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *MetadataError) Unwrap() error {
	return e.Err
}

// ToAppError maps the error onto the application-wide taxonomy
func (e *MetadataError) ToAppError() *types.AppError {
	switch e.Type {
	case ErrorTypeEmpty:
		return types.NewUpstreamEmptyError(e.Provider, e.Query)
	case ErrorTypeValidation:
		return types.NewValidationError(e.Err.Error())
	default:
		return types.NewUpstreamError(e.Provider, e.Err)
	}
}

// NoData reports that the provider had no match for query
func NoData(op, provider, query string) *MetadataError {
	return &MetadataError{Type: ErrorTypeEmpty, Op: op, Provider: provider, Query: query, Err: ErrNoData}
}

// Upstream wraps a failed request to a provider
func Upstream(op, provider string, err error) *MetadataError {
	return &MetadataError{Type: ErrorTypeUpstream, Op: op, Provider: provider, Err: err}
}

// Validation reports a request the module refuses to send
func Validation(op string, err error) *MetadataError {
	return &MetadataError{Type: ErrorTypeValidation, Op: op, Err: err}
}

// IsNoData reports whether err means the provider found nothing
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsUpstream reports whether err is a failed provider call
func IsUpstream(err error) bool {
	var me *MetadataError
	return errors.As(err, &me) && me.Type == ErrorTypeUpstream
}
