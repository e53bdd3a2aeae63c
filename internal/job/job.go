package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies what a job does.
type Type string

// Job types
const (
	TypeNoteCreate Type = "note.create"
	TypeNoteDelete Type = "note.delete"
	TypeTaskCreate Type = "task.create"
	TypeTaskDelete Type = "task.delete"
)

// Status represents the current state of a job
type Status string

// Possible job status values
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusDead       Status = "dead"
)

// Job is a queued unit of background work.
type Job struct {
	ID        uuid.UUID       `json:"id"`
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Status    Status          `json:"status"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
	RunAt     time.Time       `json:"run_at"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// New builds a pending job with payload encoded as JSON.
func New(typ Type, payload any) (*Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", typ, err)
	}
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New(),
		Type:      typ,
		Payload:   data,
		Status:    StatusPending,
		RunAt:     now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Decode unmarshals the payload into v. A payload that cannot be decoded
// will never succeed, so the error is permanent.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return Permanent(fmt.Errorf("failed to decode %s payload: %w", j.Type, err))
	}
	return nil
}

// Queue accepts jobs for background processing.
type Queue interface {
	Enqueue(ctx context.Context, job *Job) error
}

// Store persists jobs for the Postgres-backed runner.
type Store interface {
	// Save inserts a new job.
	Save(ctx context.Context, job *Job) error

	// Claim moves a pending, due job to processing and increments its
	// attempts. It reports false when another worker got there first.
	Claim(ctx context.Context, id uuid.UUID) (*Job, bool, error)

	// ClaimDue claims up to limit pending jobs whose run_at has passed,
	// skipping rows locked by other workers.
	ClaimDue(ctx context.Context, limit int) ([]*Job, error)

	// Complete marks a job as completed.
	Complete(ctx context.Context, id uuid.UUID) error

	// Fail marks a job as failed without further retries.
	Fail(ctx context.Context, id uuid.UUID, reason string) error

	// Retry puts a job back to pending, due at runAt.
	Retry(ctx context.Context, id uuid.UUID, runAt time.Time, reason string) error

	// Bury marks a job as dead after its attempts ran out.
	Bury(ctx context.Context, id uuid.UUID, reason string) error

	// ResetStuck returns jobs that have been processing for longer than
	// olderThan to pending and reports how many were reset.
	ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error)
}
