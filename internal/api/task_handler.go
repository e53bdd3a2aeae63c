package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/phrazzld/notes-api/internal/api/shared"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/service"
)

// multipartMemory is how much of a multipart form is kept in memory before
// parts spill to temporary files.
const multipartMemory = 8 << 20

// TaskHandler handles task HTTP requests.
type TaskHandler struct {
	tasks       service.TaskService
	maxFileSize int64
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler. maxFileSize bounds uploads; a
// non-positive value uses domain.DefaultMaxAttachmentSize.
func NewTaskHandler(tasks service.TaskService, maxFileSize int64, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	if maxFileSize <= 0 {
		maxFileSize = domain.DefaultMaxAttachmentSize
	}
	return &TaskHandler{
		tasks:       tasks,
		maxFileSize: maxFileSize,
		logger:      log.With(slog.String("component", "task_handler")),
	}
}

// List handles GET /task.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.tasks.List(r.Context(), page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Get handles GET /task/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Create handles the multipart POST /task with fields title, content,
// priority and file.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleAPIError(w, r, domain.NewValidationError("file", "exceeds the maximum size", domain.ErrInvalidAttachment), "")
			return
		}
		HandleAPIError(w, r, domain.NewValidationError("body", "must be multipart/form-data", domain.ErrValidation), "")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := CreateTaskRequest{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Priority: r.FormValue("priority"),
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	upload, err := h.readUpload(r)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read file")
		return
	}

	draft := domain.TaskDraft{
		Title:    req.Title,
		Content:  req.Content,
		Priority: domain.TaskPriority(req.Priority),
	}
	jobID, err := h.tasks.EnqueueCreate(r.Context(), userID, draft, upload)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task creation queued", "job_id", jobID)
	shared.RespondWithMessage(w, r, http.StatusCreated, "New task is creating...")
}

// readUpload returns the "file" part, or nil when there is none. At most
// maxFileSize+1 bytes are read so oversized files are still rejected.
func (h *TaskHandler) readUpload(r *http.Request) (*service.Upload, error) {
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	return &service.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Update handles PATCH /task/{id}. Only the owner may update.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	patch := domain.TaskPatch{Title: req.Title, Content: req.Content}
	if req.Priority != nil {
		p := domain.TaskPriority(*req.Priority)
		patch.Priority = &p
	}

	task, err := h.tasks.Update(r.Context(), userID, id, patch)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Delete handles DELETE /task/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	jobID, err := h.tasks.EnqueueDelete(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task deletion queued", "job_id", jobID, "task_id", id)
	shared.RespondWithMessage(w, r, http.StatusAccepted, "Deleting task...")
}
