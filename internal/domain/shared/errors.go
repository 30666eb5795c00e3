// Package shared contains common domain types, errors, and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNilArgument     = errors.New("argument must not be nil")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Collection errors
	ErrIndexOutOfRange = errors.New("index out of range")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrExpired      = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "person"
	Op      string // Operation that failed, e.g., "Create", "AddGrade"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Person domain errors
var (
	ErrPersonNotFound      = NewDomainError("person", "Find", ErrNotFound, "person not found")
	ErrPersonAlreadyExists = NewDomainError("person", "Create", ErrAlreadyExists, "person already exists")
	ErrDuplicatePerson     = NewDomainError("person", "Validate", ErrAlreadyExists, "person with the same name already in roster")
	ErrInvalidName         = NewDomainError("person", "Validate", ErrInvalidFormat, "names should only contain alphanumeric characters and spaces, and it should not be blank")
	ErrInvalidPhone        = NewDomainError("person", "Validate", ErrInvalidFormat, "phone numbers should only contain numbers, and it should be at least 3 digits long")
	ErrInvalidEmail        = NewDomainError("person", "Validate", ErrInvalidFormat, "email is not of the expected format local-part@domain")
	ErrInvalidAddress      = NewDomainError("person", "Validate", ErrEmptyValue, "addresses can take any values, and it should not be blank")
	ErrInvalidTag          = NewDomainError("person", "Validate", ErrInvalidFormat, "tag names should be alphanumeric")
	ErrInvalidGrade        = NewDomainError("person", "Validate", ErrValueOutOfRange, "grade score must be between 0 and 100")
	ErrInvalidAttendance   = NewDomainError("person", "Validate", ErrInvalidInput, "invalid attendance record")
	ErrGradeIndex          = NewDomainError("person", "RemoveGrade", ErrIndexOutOfRange, "grade index out of range")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNilArgument) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsNilArgument checks if the error is a nil-argument error.
// Kept distinct from the other validation kinds: a nil argument is a caller
// bug, not bad user input, and API layers map it to a different status.
func IsNilArgument(err error) bool {
	return errors.Is(err, ErrNilArgument)
}
