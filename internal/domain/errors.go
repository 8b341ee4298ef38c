package domain

import (
	"fmt"
	"time"
)

// Error codes for the different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrNotFitted      = "NOT_FITTED"
	ErrCatalog        = "CATALOG_ERROR"
	ErrPersistence    = "PERSISTENCE_ERROR"
	ErrValidation     = "VALIDATION_ERROR"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// APIError is the standardized error body returned by HTTP handlers.
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NotFittedError is returned by cluster engine read operations invoked
// before a model has been fitted. Callers fall back to the rule-based
// path on it.
type NotFittedError struct {
	Operation string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("cluster engine not fitted: %s called before Fit", e.Operation)
}

// CatalogError indicates the nutrient reference catalog could not be
// loaded. The pipeline cannot proceed without it.
type CatalogError struct {
	Path string
	Err  error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("loading nutrient catalog %q: %v", e.Path, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// PersistenceError wraps store failures during the recluster job. The
// job must not partially commit when one is raised.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
