// Package apperror provides structured error handling for the ledger engine.
// All business errors use AppError so callers can branch on machine-readable
// codes and the HTTP boundary can produce consistent responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"partsledger/internal/core/types"
)

// Error codes. The four ledger error kinds come first; the rest are the
// usual plumbing codes.
const (
	// Ledger domain errors (422)
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeSupplierConflict  = "SUPPLIER_CONFLICT"
	CodeInvalidState      = "INVALID_STATE"

	// NegativeStock is an internal invariant guard. Any path that trips it
	// is a defect, not a recoverable user error; the transaction aborts.
	CodeNegativeStock = "NEGATIVE_STOCK"

	// Validation (400)
	CodeValidation = "VALIDATION_ERROR"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"

	// Authorization (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Infrastructure (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
)

// AppError is the standard error type for the engine.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable description
	Message string `json:"message"`

	// Details carries additional context (part ids, quantities, suppliers)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewInsufficientStock reports that a requested quantity exceeds the balance
// at the source location. Never auto-retried; surfaced for an explicit caller
// decision (e.g. trigger a shortfall order).
func NewInsufficientStock(partID string, location string, requested, available types.Quantity) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock at source location",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"part_id":   partID,
			"location":  location,
			"requested": requested.String(),
			"available": available.String(),
		},
	}
}

// NewSupplierConflict reports that a job is already bound to a different
// supplier for a part. Carries both suppliers so the caller can explain
// the conflict.
func NewSupplierConflict(partID, jobID, existingSupplier, attemptedSupplier string) *AppError {
	return &AppError{
		Code:       CodeSupplierConflict,
		Message:    "job is already supplied by a different supplier for this part",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"part_id":            partID,
			"job_id":             jobID,
			"existing_supplier":  existingSupplier,
			"attempted_supplier": attemptedSupplier,
		},
	}
}

// NewInvalidState reports an operation against an object whose lifecycle
// state forbids it (receiving a completed transfer, deleting a submitted
// order, and so on).
func NewInvalidState(entity string, entityID any, status, action string) *AppError {
	return &AppError{
		Code:       CodeInvalidState,
		Message:    fmt.Sprintf("cannot %s %s in status %q", action, entity, status),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"entity": entity,
			"id":     entityID,
			"status": status,
			"action": action,
		},
	}
}

// NewNegativeStock reports the internal non-negativity guard firing.
// This is a defect signal: pre-flight checks should have rejected the
// movement before the ledger adjustment ran.
func NewNegativeStock(partID, location string, resulting types.Quantity) *AppError {
	return &AppError{
		Code:       CodeNegativeStock,
		Message:    "ledger adjustment would drive stock negative",
		HTTPStatus: http.StatusInternalServerError,
		Details: map[string]any{
			"part_id":   partID,
			"location":  location,
			"resulting": resulting.String(),
		},
	}
}

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewInternal creates an internal error, hiding details from clients.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helpers ---

// IsAppError checks if err is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts an AppError from the error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if err is CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsInsufficientStock checks if err is CodeInsufficientStock.
func IsInsufficientStock(err error) bool {
	return IsCode(err, CodeInsufficientStock)
}

// IsSupplierConflict checks if err is CodeSupplierConflict.
func IsSupplierConflict(err error) bool {
	return IsCode(err, CodeSupplierConflict)
}

// IsInvalidState checks if err is CodeInvalidState.
func IsInvalidState(err error) bool {
	return IsCode(err, CodeInvalidState)
}
