package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/notes-api/internal/api/shared"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/service"
)

// NoteHandler handles note HTTP requests. Creates and deletes are
// acknowledged immediately and carried out by a worker.
type NoteHandler struct {
	notes  service.NoteService
	logger *slog.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(notes service.NoteService, log *slog.Logger) *NoteHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NoteHandler{notes: notes, logger: log.With(slog.String("component", "note_handler"))}
}

// List handles GET /note.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	notes, err := h.notes.List(r.Context(), page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notes")
		return
	}

	resp := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, noteToResponse(n))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Get handles GET /note/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	note, err := h.notes.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get note")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(note))
}

// Create handles POST /note.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req CreateNoteRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	jobID, err := h.notes.EnqueueCreate(r.Context(), userID, domain.NoteDraft{Title: req.Title, Content: req.Content})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create note")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("note creation queued", "job_id", jobID)
	shared.RespondWithMessage(w, r, http.StatusCreated, "New note is creating...")
}

// Update handles PATCH /note/{id}. Only the owner may update.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateNoteRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	note, err := h.notes.Update(r.Context(), userID, id, domain.NotePatch{Title: req.Title, Content: req.Content})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update note")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(note))
}

// Delete handles DELETE /note/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	jobID, err := h.notes.EnqueueDelete(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete note")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("note deletion queued", "job_id", jobID, "note_id", id)
	shared.RespondWithMessage(w, r, http.StatusAccepted, "Deleting note...")
}
