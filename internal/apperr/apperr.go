// Package apperr defines the error taxonomy shared by the analysis
// orchestrator, the billing layer and the HTTP handlers. Every user-facing
// failure carries a stable machine-checkable category plus a human message;
// handlers map the category to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Category identifies the failure class independently of the message text.
type Category string

const (
	CategoryAuthentication      Category = "authentication_error"
	CategoryValidation          Category = "validation_error"
	CategoryInsufficientCredits Category = "insufficient_credits"
	CategoryNotFound            Category = "not_found"
	CategoryUpstreamParse       Category = "upstream_parse_error"
	CategoryUpstreamTransient   Category = "upstream_transient_error"
	CategoryPersistence         Category = "persistence_error"
	CategoryInternal            Category = "internal_error"
)

// Error is a categorized failure. It wraps the underlying cause, if any.
type Error struct {
	Category Category
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error category.
func (e *Error) Status() int {
	switch e.Category {
	case CategoryAuthentication:
		return http.StatusUnauthorized
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryInsufficientCredits:
		return http.StatusPaymentRequired
	case CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New creates a categorized error without an underlying cause.
func New(cat Category, message string) *Error {
	return &Error{Category: cat, Message: message}
}

// Wrap creates a categorized error around an underlying cause.
func Wrap(cat Category, message string, err error) *Error {
	return &Error{Category: cat, Message: message, Err: err}
}

// Authentication reports a bad or missing auth token.
func Authentication(message string) *Error {
	return New(CategoryAuthentication, message)
}

// Validation reports malformed CSV input or schema violations.
func Validation(message string) *Error {
	return New(CategoryValidation, message)
}

// InsufficientCredits reports an exhausted credit balance.
func InsufficientCredits(message string) *Error {
	return New(CategoryInsufficientCredits, message)
}

// NotFound reports a missing profile or report.
func NotFound(message string) *Error {
	return New(CategoryNotFound, message)
}

// UpstreamParse reports a model response that was not valid JSON.
func UpstreamParse(message string, err error) *Error {
	return Wrap(CategoryUpstreamParse, message, err)
}

// Persistence reports a failed save or update.
func Persistence(message string, err error) *Error {
	return Wrap(CategoryPersistence, message, err)
}

// Internal reports an unexpected failure.
func Internal(message string, err error) *Error {
	return Wrap(CategoryInternal, message, err)
}

// From extracts an *Error from err's chain, or wraps err as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(CategoryInternal, "an unexpected error occurred", err)
}

// CategoryOf returns the category of err, or CategoryInternal for plain errors.
func CategoryOf(err error) Category {
	return From(err).Category
}
