package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/job"
	"github.com/phrazzld/notes-api/internal/mocks"
	"github.com/phrazzld/notes-api/internal/service"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_EnqueueCreate(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	draft := domain.TaskDraft{Title: "Fix sink", Content: "the kitchen sink is leaking", Priority: domain.TaskPriorityHigh}
	png := &service.Upload{Name: "leak.png", ContentType: "image/png", Data: []byte("\x89PNG")}

	tests := []struct {
		name    string
		draft   domain.TaskDraft
		file    *service.Upload
		wantErr error
	}{
		{name: "valid", draft: draft, file: png},
		{name: "missing file", draft: draft, wantErr: domain.ErrInvalidAttachment},
		{name: "bad type", draft: draft, file: &service.Upload{Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF")}, wantErr: domain.ErrInvalidAttachment},
		{name: "too large", draft: draft, file: &service.Upload{Name: "a.pdf", ContentType: "application/pdf", Data: []byte(strings.Repeat("x", 33))}, wantErr: domain.ErrInvalidAttachment},
		{name: "bad priority", draft: domain.TaskDraft{Title: draft.Title, Content: draft.Content, Priority: "urgent"}, file: png, wantErr: domain.ErrInvalidPriority},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := &mocks.MockQueue{}
			svc := service.NewTaskService(mocks.NewMockTaskStore(), q, 32, testLogger())

			id, err := svc.EnqueueCreate(context.Background(), owner, tt.draft, tt.file)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Empty(t, q.Jobs())
				return
			}
			require.NoError(t, err)

			jobs := q.Jobs()
			require.Len(t, jobs, 1)
			assert.Equal(t, id, jobs[0].ID)
			assert.Equal(t, job.TypeTaskCreate, jobs[0].Type)

			var p job.TaskCreatePayload
			require.NoError(t, jobs[0].Decode(&p))
			assert.Equal(t, owner, p.OwnerID)
			require.NotNil(t, p.File)
			assert.Equal(t, png.Data, p.File.Data)
		})
	}
}

func TestTaskService_OwnershipAndUpdate(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	tasks := mocks.NewMockTaskStore()
	task, err := domain.NewTask(owner, domain.TaskDraft{Title: "Fix sink", Content: "the kitchen sink is leaking", Priority: domain.TaskPriorityLow}, uuid.New())
	require.NoError(t, err)
	_, err = tasks.CreateIfAbsent(context.Background(), task)
	require.NoError(t, err)

	q := &mocks.MockQueue{}
	svc := service.NewTaskService(tasks, q, 0, testLogger())
	ctx := context.Background()

	_, err = svc.EnqueueDelete(ctx, uuid.New(), task.ID)
	assert.ErrorIs(t, err, service.ErrNotOwned)
	assert.Empty(t, q.Jobs())

	_, err = svc.EnqueueDelete(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Len(t, q.Jobs(), 1)

	high := domain.TaskPriorityHigh
	updated, err := svc.Update(ctx, owner, task.ID, domain.TaskPatch{Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPriorityHigh, updated.Priority)

	bad := domain.TaskPriority("urgent")
	_, err = svc.Update(ctx, owner, task.ID, domain.TaskPatch{Priority: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)

	_, err = svc.Update(ctx, uuid.New(), task.ID, domain.TaskPatch{Priority: &high})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	list, err := svc.List(ctx, store.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
