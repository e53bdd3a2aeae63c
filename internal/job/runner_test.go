package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func fastConfig() RunnerConfig {
	cfg := DefaultRunnerConfig()
	cfg.WorkerCount = 2
	cfg.QueueSize = 10
	cfg.MaxAttempts = 3
	cfg.RetryBackoff = time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond
	cfg.StuckJobCheckInterval = time.Hour
	return cfg
}

func newTestJob(t *testing.T, typ Type) *Job {
	t.Helper()
	j, err := New(typ, DeletePayload{})
	require.NoError(t, err)
	return j
}

func waitForStatus(t *testing.T, s *mockStore, j *Job, want Status) Job {
	t.Helper()
	var got Job
	require.Eventually(t, func() bool {
		got = s.get(j.ID)
		return got.Status == want
	}, 2*time.Second, 5*time.Millisecond, "job never reached %s", want)
	return got
}

func TestRunner_EnqueueBeforeStart(t *testing.T) {
	t.Parallel()

	s := newMockStore()
	r := NewRunner(s, NewDispatcher(), fastConfig(), testLogger())

	j := newTestJob(t, TypeNoteCreate)
	require.NoError(t, r.Enqueue(context.Background(), j))

	saved := s.get(j.ID)
	assert.Equal(t, StatusPending, saved.Status)
	assert.Zero(t, saved.Attempts)
}

func TestRunner_EnqueueStoreError(t *testing.T) {
	t.Parallel()

	s := newMockStore()
	s.SaveFn = func(ctx context.Context, job *Job) error {
		return errors.New("connection refused")
	}
	r := NewRunner(s, NewDispatcher(), fastConfig(), testLogger())

	err := r.Enqueue(context.Background(), newTestJob(t, TypeNoteCreate))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save job")
}

func TestRunner_StartRequiresWorkers(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.WorkerCount = 0
	r := NewRunner(newMockStore(), NewDispatcher(), cfg, testLogger())
	assert.Error(t, r.Start())
}

func TestRunner_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		handler      func(calls int32) error
		wantStatus   Status
		wantAttempts int
		wantErrCalls int32
	}{
		{
			name:         "success",
			handler:      func(int32) error { return nil },
			wantStatus:   StatusCompleted,
			wantAttempts: 1,
		},
		{
			name:         "permanent failure is not retried",
			handler:      func(int32) error { return Permanent(errors.New("note not found")) },
			wantStatus:   StatusFailed,
			wantAttempts: 1,
			wantErrCalls: 1,
		},
		{
			name: "transient failure retries until success",
			handler: func(calls int32) error {
				if calls < 3 {
					return errors.New("database unavailable")
				}
				return nil
			},
			wantStatus:   StatusCompleted,
			wantAttempts: 3,
			wantErrCalls: 2,
		},
		{
			name:         "attempts exhausted buries the job",
			handler:      func(int32) error { return errors.New("database unavailable") },
			wantStatus:   StatusDead,
			wantAttempts: 3,
			wantErrCalls: 3,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls, errCalls atomic.Int32
			d := NewDispatcher()
			d.Register(TypeNoteCreate, HandlerFunc(func(ctx context.Context, job *Job) error {
				return tt.handler(calls.Add(1))
			}))

			s := newMockStore()
			r := NewRunner(s, d, fastConfig(), testLogger())
			r.SetErrorHandler(func(job *Job, err error) { errCalls.Add(1) })
			require.NoError(t, r.Start())
			defer r.Stop()

			j := newTestJob(t, TypeNoteCreate)
			require.NoError(t, r.Enqueue(context.Background(), j))

			got := waitForStatus(t, s, j, tt.wantStatus)
			assert.Equal(t, tt.wantAttempts, got.Attempts)
			assert.Equal(t, tt.wantErrCalls, errCalls.Load())
		})
	}
}

func TestRunner_UnknownTypeFails(t *testing.T) {
	t.Parallel()

	s := newMockStore()
	r := NewRunner(s, NewDispatcher(), fastConfig(), testLogger())
	require.NoError(t, r.Start())
	defer r.Stop()

	j := newTestJob(t, Type("card.generate"))
	require.NoError(t, r.Enqueue(context.Background(), j))

	got := waitForStatus(t, s, j, StatusFailed)
	assert.Contains(t, got.LastError, ErrUnknownType.Error())
}

func TestRunner_ResumesJobsSavedBeforeStart(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := NewDispatcher()
	d.Register(TypeTaskDelete, HandlerFunc(func(ctx context.Context, job *Job) error {
		calls.Add(1)
		return nil
	}))

	s := newMockStore()
	first := newTestJob(t, TypeTaskDelete)
	second := newTestJob(t, TypeTaskDelete)
	require.NoError(t, s.Save(context.Background(), first))
	require.NoError(t, s.Save(context.Background(), second))

	r := NewRunner(s, d, fastConfig(), testLogger())
	require.NoError(t, r.Start())
	defer r.Stop()

	waitForStatus(t, s, first, StatusCompleted)
	waitForStatus(t, s, second, StatusCompleted)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunner_StopReleasesInterruptedJob(t *testing.T) {
	t.Parallel()

	running := make(chan struct{})
	d := NewDispatcher()
	d.Register(TypeNoteDelete, HandlerFunc(func(ctx context.Context, job *Job) error {
		close(running)
		<-ctx.Done()
		return ctx.Err()
	}))

	s := newMockStore()
	r := NewRunner(s, d, fastConfig(), testLogger())
	require.NoError(t, r.Start())

	j := newTestJob(t, TypeNoteDelete)
	require.NoError(t, r.Enqueue(context.Background(), j))

	select {
	case <-running:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never started")
	}
	r.Stop()

	got := s.get(j.ID)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "interrupted by shutdown", got.LastError)
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base    time.Duration
		attempt int
		want    time.Duration
	}{
		{time.Second, 0, time.Second},
		{time.Second, 1, time.Second},
		{time.Second, 2, 2 * time.Second},
		{time.Second, 4, 8 * time.Second},
		{time.Second, 20, maxBackoff},
		{0, 3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.base, tt.attempt), "base=%s attempt=%d", tt.base, tt.attempt)
	}
}
