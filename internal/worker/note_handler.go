package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/job"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/store"
)

// NoteHandler performs note create and delete jobs.
type NoteHandler struct {
	notes  store.NoteStore
	config Config
	logger *slog.Logger
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(notes store.NoteStore, cfg Config, log *slog.Logger) *NoteHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NoteHandler{notes: notes, config: cfg, logger: log}
}

// Create persists the note carried by a note.create job.
func (h *NoteHandler) Create(ctx context.Context, j *job.Job) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	var p job.NoteCreatePayload
	if err := j.Decode(&p); err != nil {
		return err
	}
	if err := pause(ctx, h.config.CreateDelay); err != nil {
		return err
	}

	note, err := domain.NewNote(p.OwnerID, p.Draft, j.ID)
	if err != nil {
		return job.Permanent(err)
	}

	created, err := h.notes.CreateIfAbsent(ctx, note)
	if err != nil {
		return classify(fmt.Errorf("failed to create note: %w", err))
	}
	if !created {
		log.Info("note already persisted for this job")
		return nil
	}

	log.Info("note created", "note_id", note.ID, "user_id", p.OwnerID)
	return nil
}

// Delete removes the note named by a note.delete job. A note that is gone,
// or that belongs to someone else, is a permanent not-found.
func (h *NoteHandler) Delete(ctx context.Context, j *job.Job) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	var p job.DeletePayload
	if err := j.Decode(&p); err != nil {
		return err
	}
	if err := pause(ctx, h.config.DeleteDelay); err != nil {
		return err
	}

	note, err := h.notes.GetByID(ctx, p.ResourceID)
	if err != nil {
		return classify(fmt.Errorf("failed to load note %s: %w", p.ResourceID, err))
	}
	if note.UserID != p.OwnerID {
		log.Warn("delete requested by non-owner", "note_id", note.ID, "requested_by", p.OwnerID)
		return job.Permanent(fmt.Errorf("note %s: %w", p.ResourceID, store.ErrNoteNotFound))
	}

	if err := h.notes.Delete(ctx, note.ID); err != nil {
		return classify(fmt.Errorf("failed to delete note: %w", err))
	}

	log.Info("note deleted", "note_id", note.ID)
	return nil
}
