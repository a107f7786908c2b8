// Package errors provides structured error handling for the catalog module.
package errors

import (
	"errors"
	"fmt"

	"github.com/mantonx/catalog/internal/types"
)

// ErrorType classifies catalog errors
type ErrorType string

const (
	// ErrorTypeNotFound indicates the requested document does not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeStore indicates a transport or auth failure against the store
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeValidation indicates rejected input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeSubscription indicates a live subscription failure
	ErrorTypeSubscription ErrorType = "subscription"
)

// Sentinel errors
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrInvalidItemType   = errors.New("invalid item type")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStoreUnavailable  = errors.New("document store unavailable")
	ErrSubscriptionEnded = errors.New("subscription ended")
)

// CatalogError provides structured error information with context
type CatalogError struct {
	Type      ErrorType
	Op        string
	ItemID    string
	CommentID string
	Err       error
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	switch {
	case e.ItemID != "":
		return fmt.Sprintf("%s error in %s [item=%s]: %v", e.Type, e.Op, e.ItemID, e.Err)
	case e.CommentID != "":
		return fmt.Sprintf("%s error in %s [comment=%s]: %v", e.Type, e.Op, e.CommentID, e.Err)
	default:
		return fmt.Sprintf("%s error in %s: %v", e.Type, e.Op, e.Err)
	}
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for sentinel errors
func (e *CatalogError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WithItem adds item context to the error
func (e *CatalogError) WithItem(itemID string) *CatalogError {
	e.ItemID = itemID
	return e
}

// WithComment adds comment context to the error
func (e *CatalogError) WithComment(commentID string) *CatalogError {
	e.CommentID = commentID
	return e
}

// ToAppError maps the error onto the application-wide taxonomy
func (e *CatalogError) ToAppError() *types.AppError {
	switch e.Type {
	case ErrorTypeNotFound:
		if errors.Is(e.Err, ErrCommentNotFound) {
			return types.NewNotFoundError("comment", e.CommentID)
		}
		return types.NewNotFoundError("item", e.ItemID)
	case ErrorTypeValidation:
		return types.NewValidationError(e.Err.Error())
	default:
		return types.NewStoreError(e.Op, e.Err)
	}
}

// New creates a new CatalogError
func New(errType ErrorType, op string, err error) *CatalogError {
	return &CatalogError{Type: errType, Op: op, Err: err}
}

// ItemNotFound reports a missing item
func ItemNotFound(op, itemID string) *CatalogError {
	return New(ErrorTypeNotFound, op, ErrItemNotFound).WithItem(itemID)
}

// CommentNotFound reports a missing comment
func CommentNotFound(op, commentID string) *CatalogError {
	return New(ErrorTypeNotFound, op, ErrCommentNotFound).WithComment(commentID)
}

// StoreError wraps a failure of the underlying store
func StoreError(op string, err error) *CatalogError {
	return New(ErrorTypeStore, op, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
}

// ValidationError reports rejected input
func ValidationError(op string, err error) *CatalogError {
	return New(ErrorTypeValidation, op, err)
}

// IsNotFound reports whether err is a not-found catalog error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrCommentNotFound)
}

// IsStoreError reports whether err is a store failure
func IsStoreError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
