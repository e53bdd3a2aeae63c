package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/job"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/store"
)

// TaskHandler performs task create and delete jobs, including the
// attachment blob.
type TaskHandler struct {
	tasks  store.TaskStore
	blobs  store.BlobStore
	config Config
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks store.TaskStore, blobs store.BlobStore, cfg Config, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{tasks: tasks, blobs: blobs, config: cfg, logger: log}
}

// Create writes the attachment, then the task row pointing at it.
func (h *TaskHandler) Create(ctx context.Context, j *job.Job) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	var p job.TaskCreatePayload
	if err := j.Decode(&p); err != nil {
		return err
	}
	if err := pause(ctx, h.config.CreateDelay); err != nil {
		return err
	}

	task, err := domain.NewTask(p.OwnerID, p.Draft, j.ID)
	if err != nil {
		return job.Permanent(err)
	}

	if p.File != nil {
		key := BlobKey(j, p.File.Name)
		size := int64(len(p.File.Data))
		if err := h.blobs.Put(ctx, key, bytes.NewReader(p.File.Data), size, p.File.ContentType); err != nil {
			return fmt.Errorf("failed to store attachment: %w", err)
		}
		task.Attachment = &domain.Attachment{
			Key:         key,
			Name:        p.File.Name,
			ContentType: p.File.ContentType,
			Size:        size,
		}
		log.Debug("attachment stored", "key", key, "size", size)
	}

	created, err := h.tasks.CreateIfAbsent(ctx, task)
	if err != nil {
		err = classify(fmt.Errorf("failed to create task: %w", err))
		if job.IsPermanent(err) && task.Attachment != nil {
			h.removeBlob(ctx, log, task.Attachment.Key)
		}
		return err
	}
	if !created {
		log.Info("task already persisted for this job")
		return nil
	}

	log.Info("task created", "task_id", task.ID, "user_id", p.OwnerID)
	return nil
}

// Delete removes the task and then, best effort, its attachment.
func (h *TaskHandler) Delete(ctx context.Context, j *job.Job) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	var p job.DeletePayload
	if err := j.Decode(&p); err != nil {
		return err
	}
	if err := pause(ctx, h.config.DeleteDelay); err != nil {
		return err
	}

	task, err := h.tasks.GetByID(ctx, p.ResourceID)
	if err != nil {
		return classify(fmt.Errorf("failed to load task %s: %w", p.ResourceID, err))
	}
	if task.UserID != p.OwnerID {
		log.Warn("delete requested by non-owner", "task_id", task.ID, "requested_by", p.OwnerID)
		return job.Permanent(fmt.Errorf("task %s: %w", p.ResourceID, store.ErrTaskNotFound))
	}

	if err := h.tasks.Delete(ctx, task.ID); err != nil {
		return classify(fmt.Errorf("failed to delete task: %w", err))
	}
	if task.Attachment != nil {
		h.removeBlob(ctx, log, task.Attachment.Key)
	}

	log.Info("task deleted", "task_id", task.ID)
	return nil
}

func (h *TaskHandler) removeBlob(ctx context.Context, log *slog.Logger, key string) {
	if err := h.blobs.Delete(ctx, key); err != nil {
		log.Warn("failed to remove attachment", "key", key, "error", err)
	}
}
