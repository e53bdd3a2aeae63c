package job

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/store"
)

// mockStore is an in-memory Store. Any ...Fn field that is set replaces the
// default behavior of its method.
type mockStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job

	SaveFn     func(ctx context.Context, job *Job) error
	ClaimDueFn func(ctx context.Context, limit int) ([]*Job, error)
}

func newMockStore() *mockStore {
	return &mockStore{jobs: make(map[uuid.UUID]*Job)}
}

func (s *mockStore) Save(ctx context.Context, job *Job) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, job)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *mockStore) Claim(_ context.Context, id uuid.UUID) (*Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.Status != StatusPending || j.RunAt.After(time.Now().UTC()) {
		return nil, false, nil
	}
	j.Status = StatusProcessing
	j.Attempts++
	j.UpdatedAt = time.Now().UTC()
	cp := *j
	return &cp, true, nil
}

func (s *mockStore) ClaimDue(ctx context.Context, limit int) ([]*Job, error) {
	if s.ClaimDueFn != nil {
		return s.ClaimDueFn(ctx, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var out []*Job
	for _, j := range s.jobs {
		if len(out) >= limit {
			break
		}
		if j.Status == StatusPending && !j.RunAt.After(now) {
			j.Status = StatusProcessing
			j.Attempts++
			j.UpdatedAt = now
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *mockStore) setStatus(id uuid.UUID, status Status, reason string, runAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	j.Status = status
	j.LastError = reason
	if !runAt.IsZero() {
		j.RunAt = runAt
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *mockStore) Complete(_ context.Context, id uuid.UUID) error {
	return s.setStatus(id, StatusCompleted, "", time.Time{})
}

func (s *mockStore) Fail(_ context.Context, id uuid.UUID, reason string) error {
	return s.setStatus(id, StatusFailed, reason, time.Time{})
}

func (s *mockStore) Retry(_ context.Context, id uuid.UUID, runAt time.Time, reason string) error {
	return s.setStatus(id, StatusPending, reason, runAt)
}

func (s *mockStore) Bury(_ context.Context, id uuid.UUID, reason string) error {
	return s.setStatus(id, StatusDead, reason, time.Time{})
}

func (s *mockStore) ResetStuck(_ context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-olderThan)
	var n int64
	for _, j := range s.jobs {
		if j.Status == StatusProcessing && j.UpdatedAt.Before(cutoff) {
			j.Status = StatusPending
			n++
		}
	}
	return n, nil
}

func (s *mockStore) get(id uuid.UUID) Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.jobs[id]
}
