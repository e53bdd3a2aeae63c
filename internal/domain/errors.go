package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is usually wrapped by a ValidationError naming the field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPassword is returned when a password doesn't meet requirements.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidPriority is returned for a task priority outside the enum.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrInvalidAttachment is returned when an uploaded file is missing,
	// too large, or of a type that is not accepted.
	ErrInvalidAttachment = errors.New("invalid attachment")

	// ErrUnauthorized is returned when the caller identity is missing.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden operation")
)

// ValidationError reports which field failed and why. It wraps a sentinel
// so callers can keep using errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is lets every ValidationError match ErrValidation in addition to its wrapped sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
