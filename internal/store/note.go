package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/domain"
)

// NoteStore defines the interface for note persistence.
type NoteStore interface {
	// CreateIfAbsent inserts note unless a row with the same idempotency key
	// already exists. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, note *domain.Note) (bool, error)

	// GetByID retrieves a note with its owner's username.
	// Returns ErrNoteNotFound if the note does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// List returns notes newest first.
	List(ctx context.Context, page Page) ([]*domain.Note, error)

	// Update writes title, content and updated_at of an existing note.
	// Returns ErrNoteNotFound if the note does not exist.
	Update(ctx context.Context, note *domain.Note) error

	// Delete removes a note. Returns ErrNoteNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
