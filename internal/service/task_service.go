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

// Upload is a task attachment as received from the client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// TaskService provides task reads, owner-only updates and asynchronous
// create and delete.
type TaskService interface {
	// EnqueueCreate validates draft and file and queues the creation. The
	// file travels with the job and is written by the worker.
	EnqueueCreate(ctx context.Context, ownerID uuid.UUID, draft domain.TaskDraft, file *Upload) (uuid.UUID, error)

	// EnqueueDelete queues deletion of a task, with the same ownership
	// rules as NoteService.EnqueueDelete.
	EnqueueDelete(ctx context.Context, ownerID, taskID uuid.UUID) (uuid.UUID, error)

	List(ctx context.Context, page store.Page) ([]*domain.Task, error)
	Get(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, ownerID, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
}

type taskServiceImpl struct {
	tasks       store.TaskStore
	queue       job.Queue
	maxFileSize int64
	logger      *slog.Logger
}

// NewTaskService creates a new TaskService. maxFileSize falls back to
// domain.DefaultMaxAttachmentSize when not positive.
func NewTaskService(tasks store.TaskStore, queue job.Queue, maxFileSize int64, logger *slog.Logger) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxFileSize <= 0 {
		maxFileSize = domain.DefaultMaxAttachmentSize
	}
	return &taskServiceImpl{
		tasks:       tasks,
		queue:       queue,
		maxFileSize: maxFileSize,
		logger:      logger.With("component", "task_service"),
	}
}

func (s *taskServiceImpl) EnqueueCreate(ctx context.Context, ownerID uuid.UUID, draft domain.TaskDraft, file *Upload) (uuid.UUID, error) {
	if err := draft.Validate(); err != nil {
		return uuid.Nil, err
	}
	if file == nil {
		return uuid.Nil, ErrAttachmentRequired
	}
	if err := domain.ValidateAttachment(file.Name, file.ContentType, int64(len(file.Data)), s.maxFileSize); err != nil {
		return uuid.Nil, err
	}

	return s.enqueue(ctx, job.TypeTaskCreate, job.TaskCreatePayload{
		OwnerID: ownerID,
		Draft:   draft,
		File: &job.FilePayload{
			Name:        file.Name,
			ContentType: file.ContentType,
			Data:        file.Data,
		},
	})
}

func (s *taskServiceImpl) EnqueueDelete(ctx context.Context, ownerID, taskID uuid.UUID) (uuid.UUID, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	switch {
	case err == nil:
		if task.UserID != ownerID {
			return uuid.Nil, ErrNotOwned
		}
	case store.IsNotFoundError(err):
	default:
		return uuid.Nil, NewServiceError("task", "enqueue_delete", err)
	}
	return s.enqueue(ctx, job.TypeTaskDelete, job.DeletePayload{ResourceID: taskID, OwnerID: ownerID})
}

func (s *taskServiceImpl) enqueue(ctx context.Context, typ job.Type, payload any) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	j, err := job.New(typ, payload)
	if err != nil {
		return uuid.Nil, NewServiceError("task", string(typ), err)
	}
	if err := s.queue.Enqueue(ctx, j); err != nil {
		log.Error("failed to enqueue job", "job_type", typ, "error", err)
		return uuid.Nil, NewServiceError("task", string(typ), err)
	}
	log.Info("job enqueued", "job_id", j.ID, "job_type", typ)
	return j.ID, nil
}

func (s *taskServiceImpl) List(ctx context.Context, page store.Page) ([]*domain.Task, error) {
	tasks, err := s.tasks.List(ctx, page.Normalize())
	if err != nil {
		return nil, NewServiceError("task", "list", err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) Get(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewServiceError("task", "get", err)
	}
	return task, nil
}

func (s *taskServiceImpl) Update(ctx context.Context, ownerID, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != ownerID {
		return nil, ErrNotOwned
	}
	if err := task.Apply(patch); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewServiceError("task", "update", err)
	}
	return task, nil
}
