// Package errors provides error types for MCP tool argument and lookup failures.
package errors

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a lookup inside fetched content found nothing.
type NotFoundError struct {
	Resource   string // "element", "page"
	Scope      string // page id the lookup ran against, may be empty
	Identifier string // attribute selector or id
}

func (e *NotFoundError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s not found in page %s: %s", e.Resource, e.Scope, e.Identifier)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Identifier)
}

// NewElementNotFoundError creates a NotFoundError for an attribute lookup in a page body.
func NewElementNotFoundError(pageID, attribute, value string) *NotFoundError {
	return &NotFoundError{
		Resource:   "element",
		Scope:      pageID,
		Identifier: fmt.Sprintf("%s=%q", attribute, value),
	}
}

// ValidationError indicates invalid input parameters.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value (may be empty for sensitive data)
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation returns true if err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
