package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/job"
	"github.com/phrazzld/notes-api/internal/store"
)

// Config sets the processing-time budget per job kind.
type Config struct {
	CreateDelay time.Duration
	DeleteDelay time.Duration
}

// Register wires the note and task handlers into d.
func Register(d *job.Dispatcher, notes store.NoteStore, tasks store.TaskStore, blobs store.BlobStore, cfg Config, logger *slog.Logger) {
	nh := NewNoteHandler(notes, cfg, logger)
	th := NewTaskHandler(tasks, blobs, cfg, logger)

	d.Register(job.TypeNoteCreate, job.HandlerFunc(nh.Create))
	d.Register(job.TypeNoteDelete, job.HandlerFunc(nh.Delete))
	d.Register(job.TypeTaskCreate, job.HandlerFunc(th.Create))
	d.Register(job.TypeTaskDelete, job.HandlerFunc(th.Delete))
}

// pause waits for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classify marks errors that no retry can fix as permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, store.ErrInvalidEntity) ||
		store.IsNotFoundError(err) {
		return job.Permanent(err)
	}
	return err
}

// BlobKey is where a task create job stores its attachment. It depends only
// on the job, so retries overwrite the same object.
func BlobKey(j *job.Job, fileName string) string {
	return fmt.Sprintf("tasks/%d-%s/%s", j.CreatedAt.UnixNano(), j.ID, domain.SanitizeFileName(fileName))
}
