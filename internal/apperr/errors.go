// Package apperr holds the business error taxonomy shared by both ledgers.
// Handlers turn these into structured 4xx responses; anything else is a 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError - malformed, missing or out-of-range input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError - a referenced item, customer, user or transaction does not exist
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func NotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientStockError - an OUT movement asked for more than is on hand
type InsufficientStockError struct {
	ItemID    uint
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.Name, e.Available, e.Requested)
}

// DuplicateError - unique constraint conflict (item name+variety, username)
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string { return e.Message }

// NoSuccessError - every line of a batch was rejected and nothing was committed.
// Details carries the per-line reasons.
type NoSuccessError struct {
	Message string
	Details any
}

func (e *NoSuccessError) Error() string { return e.Message }

// Status maps an error to the HTTP status the handlers answer with
func Status(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		stock      *InsufficientStockError
		duplicate  *DuplicateError
		noSuccess  *NoSuccessError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &stock):
		return http.StatusBadRequest
	case errors.As(err, &duplicate):
		return http.StatusConflict
	case errors.As(err, &noSuccess):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
