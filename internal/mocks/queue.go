package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/notes-api/internal/job"
)

// MockQueue implements job.Queue by recording enqueued jobs
type MockQueue struct {
	EnqueueFn func(ctx context.Context, j *job.Job) error

	mu   sync.Mutex
	jobs []*job.Job
}

var _ job.Queue = (*MockQueue)(nil)

// Enqueue implements the job.Queue interface
func (m *MockQueue) Enqueue(ctx context.Context, j *job.Job) error {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, j)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, j)
	return nil
}

// Jobs returns the jobs enqueued so far.
func (m *MockQueue) Jobs() []*job.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*job.Job(nil), m.jobs...)
}
