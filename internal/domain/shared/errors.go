package shared

import "errors"

// ErrorKind classifies domain errors so callers (and the HTTP layer) can
// distinguish bad input from state conflicts, missing resources, and
// failures of external collaborators.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "VALIDATION"
	ErrorKindConflict   ErrorKind = "CONFLICT"
	ErrorKindNotFound   ErrorKind = "NOT_FOUND"
	ErrorKindExternal   ErrorKind = "EXTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewValidationError creates a domain error for invalid input.
// No mutation may have been attempted when it is returned.
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: ErrorKindValidation, Code: code, Message: message}
}

// NewConflictError creates a domain error for an operation that is not
// allowed in the current state (invalid transition, duplicate document,
// finalized-document mutation, refund over remaining balance).
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Kind: ErrorKindConflict, Code: code, Message: message}
}

// NewNotFoundError creates a domain error for a missing resource.
func NewNotFoundError(code, message string) *DomainError {
	return &DomainError{Kind: ErrorKindNotFound, Code: code, Message: message}
}

// NewExternalError creates a domain error for a failed call to an external
// collaborator (payment provider). These are retryable by explicit caller
// action, never automatically.
func NewExternalError(code, message string) *DomainError {
	return &DomainError{Kind: ErrorKindExternal, Code: code, Message: message}
}

// KindOf returns the ErrorKind of err, or "" if err is not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Common domain errors
var (
	ErrNotFound            = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewConflictError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewConflictError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewConflictError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)
