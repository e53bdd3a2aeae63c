package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/notes-api/internal/domain"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. It matches domain.ErrForbidden.
	ErrNotOwned = fmt.Errorf("%w: resource is owned by another user", domain.ErrForbidden)

	// ErrAttachmentRequired indicates a task was submitted without a file.
	ErrAttachmentRequired = domain.NewValidationError("file", "is required", domain.ErrInvalidAttachment)
)

// ServiceError wraps unexpected failures with the operation that hit them.
type ServiceError struct {
	// Service is the service name, e.g. "note"
	Service string
	// Operation is the operation that failed, e.g. "enqueue_create"
	Operation string
	// Err is the underlying error
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Operation)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err unless it already is a ServiceError. Sentinels
// below it stay reachable with errors.Is.
func NewServiceError(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	return &ServiceError{Service: service, Operation: operation, Err: err}
}
