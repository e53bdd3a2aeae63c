package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/job"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/store"
)

// NoteService provides note reads, owner-only updates and asynchronous
// create and delete.
type NoteService interface {
	// EnqueueCreate validates draft and queues its creation for ownerID.
	// It returns the job id, which becomes the note's idempotency key.
	EnqueueCreate(ctx context.Context, ownerID uuid.UUID, draft domain.NoteDraft) (uuid.UUID, error)

	// EnqueueDelete queues deletion of a note. A note that exists but
	// belongs to someone else fails with ErrNotOwned; a note that does not
	// exist yet is left for the worker to report.
	EnqueueDelete(ctx context.Context, ownerID, noteID uuid.UUID) (uuid.UUID, error)

	// List returns notes newest first.
	List(ctx context.Context, page store.Page) ([]*domain.Note, error)

	// Get retrieves a note by id.
	Get(ctx context.Context, noteID uuid.UUID) (*domain.Note, error)

	// Update applies patch to a note owned by ownerID.
	Update(ctx context.Context, ownerID, noteID uuid.UUID, patch domain.NotePatch) (*domain.Note, error)
}

type noteServiceImpl struct {
	notes  store.NoteStore
	queue  job.Queue
	logger *slog.Logger
}

// NewNoteService creates a new NoteService
func NewNoteService(notes store.NoteStore, queue job.Queue, logger *slog.Logger) NoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &noteServiceImpl{
		notes:  notes,
		queue:  queue,
		logger: logger.With("component", "note_service"),
	}
}

func (s *noteServiceImpl) EnqueueCreate(ctx context.Context, ownerID uuid.UUID, draft domain.NoteDraft) (uuid.UUID, error) {
	if err := draft.Validate(); err != nil {
		return uuid.Nil, err
	}
	return s.enqueue(ctx, job.TypeNoteCreate, job.NoteCreatePayload{OwnerID: ownerID, Draft: draft})
}

func (s *noteServiceImpl) EnqueueDelete(ctx context.Context, ownerID, noteID uuid.UUID) (uuid.UUID, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	switch {
	case err == nil:
		if note.UserID != ownerID {
			return uuid.Nil, ErrNotOwned
		}
	case store.IsNotFoundError(err):
		// may still be queued for creation
	default:
		return uuid.Nil, NewServiceError("note", "enqueue_delete", err)
	}
	return s.enqueue(ctx, job.TypeNoteDelete, job.DeletePayload{ResourceID: noteID, OwnerID: ownerID})
}

func (s *noteServiceImpl) enqueue(ctx context.Context, typ job.Type, payload any) (uuid.UUID, error) {
	j, err := job.New(typ, payload)
	if err != nil {
		return uuid.Nil, NewServiceError("note", string(typ), err)
	}
	if err := s.queue.Enqueue(ctx, j); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to enqueue job",
			"job_type", typ,
			"error", err)
		return uuid.Nil, NewServiceError("note", string(typ), err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("job enqueued",
		"job_id", j.ID,
		"job_type", typ)
	return j.ID, nil
}

func (s *noteServiceImpl) List(ctx context.Context, page store.Page) ([]*domain.Note, error) {
	notes, err := s.notes.List(ctx, page.Normalize())
	if err != nil {
		return nil, NewServiceError("note", "list", err)
	}
	return notes, nil
}

func (s *noteServiceImpl) Get(ctx context.Context, noteID uuid.UUID) (*domain.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewServiceError("note", "get", err)
	}
	return note, nil
}

func (s *noteServiceImpl) Update(ctx context.Context, ownerID, noteID uuid.UUID, patch domain.NotePatch) (*domain.Note, error) {
	note, err := s.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.UserID != ownerID {
		return nil, ErrNotOwned
	}
	if err := note.Apply(patch); err != nil {
		return nil, err
	}
	if err := s.notes.Update(ctx, note); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewServiceError("note", "update", err)
	}
	return note, nil
}
