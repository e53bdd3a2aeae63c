package service_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/phrazzld/notes-api/internal/job"
	"github.com/stretchr/testify/mock"
)

// mockQueue mocks job.Queue
type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
