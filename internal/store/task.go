package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// CreateIfAbsent inserts task unless a row with the same idempotency key
	// already exists. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, task *domain.Task) (bool, error)

	// GetByID retrieves a task with its owner's username.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns tasks newest first.
	List(ctx context.Context, page Page) ([]*domain.Task, error)

	// Update writes title, content, priority and updated_at of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Returns ErrTaskNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
