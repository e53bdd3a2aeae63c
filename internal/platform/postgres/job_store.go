package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/job"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/store"
)

// PostgresJobStore implements job.Store on the jobs table. Claims are
// conditional updates, so concurrent runners never process a job twice.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgresJobStore
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

var _ job.Store = (*PostgresJobStore)(nil)

const jobColumns = `id, type, payload, status, attempts, last_error, run_at, created_at, updated_at`

// Save persists a job to the database
func (s *PostgresJobStore) Save(ctx context.Context, j *job.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO jobs (id, type, payload, status, attempts, run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		j.ID,
		string(j.Type),
		string(j.Payload),
		string(j.Status),
		j.Attempts,
		j.RunAt,
		j.CreatedAt,
		j.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to save job",
			"job_id", j.ID,
			"job_type", j.Type,
			"error", err)
		return fmt.Errorf("failed to save job to database: %w", MapError(err))
	}
	return nil
}

// Claim implements job.Store.Claim
func (s *PostgresJobStore) Claim(ctx context.Context, id uuid.UUID) (*job.Job, bool, error) {
	query := `
		UPDATE jobs
		SET status = 'processing', attempts = attempts + 1, updated_at = now()
		WHERE id = $1 AND status = 'pending' AND run_at <= now()
		RETURNING ` + jobColumns

	j, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to claim job: %w", err)
	}
	return j, true, nil
}

// ClaimDue implements job.Store.ClaimDue. SKIP LOCKED lets concurrent
// pollers take disjoint batches.
func (s *PostgresJobStore) ClaimDue(ctx context.Context, limit int) ([]*job.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = 'processing', attempts = attempts + 1, updated_at = now()
		WHERE id IN (
			SELECT id FROM jobs
			WHERE status = 'pending' AND run_at <= now()
			ORDER BY run_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Error("failed to claim due jobs", "error", err)
		return nil, fmt.Errorf("failed to claim due jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return jobs, nil
}

// Complete implements job.Store.Complete
func (s *PostgresJobStore) Complete(ctx context.Context, id uuid.UUID) error {
	return s.finish(ctx, id, job.StatusCompleted, "")
}

// Fail implements job.Store.Fail
func (s *PostgresJobStore) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return s.finish(ctx, id, job.StatusFailed, reason)
}

// Bury implements job.Store.Bury
func (s *PostgresJobStore) Bury(ctx context.Context, id uuid.UUID, reason string) error {
	return s.finish(ctx, id, job.StatusDead, reason)
}

func (s *PostgresJobStore) finish(ctx context.Context, id uuid.UUID, status job.Status, reason string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $1, last_error = NULLIF($2, ''), updated_at = now()
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, string(status), reason, id)
	if err != nil {
		log.Error("failed to update job status",
			"job_id", id,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return CheckRowsAffected(result, store.ErrJobNotFound)
}

// Retry implements job.Store.Retry
func (s *PostgresJobStore) Retry(ctx context.Context, id uuid.UUID, runAt time.Time, reason string) error {
	query := `
		UPDATE jobs
		SET status = 'pending', run_at = $1, last_error = NULLIF($2, ''), updated_at = now()
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, runAt, reason, id)
	if err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}
	return CheckRowsAffected(result, store.ErrJobNotFound)
}

// ResetStuck implements job.Store.ResetStuck
func (s *PostgresJobStore) ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE jobs
		SET status = 'pending', run_at = now(), last_error = 'reset after being stuck in processing', updated_at = now()
		WHERE status = 'processing' AND updated_at < $1
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to reset stuck jobs: %w", err)
	}
	return result.RowsAffected()
}

func scanJob(row rowScanner) (*job.Job, error) {
	var j job.Job
	var typ, status string
	var payload []byte
	var lastError sql.NullString

	err := row.Scan(
		&j.ID,
		&typ,
		&payload,
		&status,
		&j.Attempts,
		&lastError,
		&j.RunAt,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Type = job.Type(typ)
	j.Status = job.Status(status)
	j.Payload = payload
	j.LastError = lastError.String
	return &j, nil
}
