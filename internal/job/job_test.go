package job

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndDecode(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	in := TaskCreatePayload{
		OwnerID: owner,
		Draft:   domain.TaskDraft{Title: "Fix sink", Content: "the kitchen sink is leaking", Priority: domain.TaskPriorityHigh},
		File:    &FilePayload{Name: "leak.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}

	j, err := New(TypeTaskCreate, in)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, j.ID)
	assert.Equal(t, StatusPending, j.Status)
	assert.Equal(t, j.CreatedAt, j.RunAt)

	var out TaskCreatePayload
	require.NoError(t, j.Decode(&out))
	assert.Equal(t, in, out)
}

func TestDecodeMalformedPayloadIsPermanent(t *testing.T) {
	t.Parallel()

	j := &Job{Type: TypeNoteCreate, Payload: []byte(`{"owner_id": 42`)}
	var out NoteCreatePayload
	err := j.Decode(&out)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestPermanentError(t *testing.T) {
	t.Parallel()

	cause := errors.New("gone")
	err := fmt.Errorf("handle: %w", Permanent(cause))

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsPermanent(cause))
	assert.Nil(t, Permanent(nil))
}

func TestDispatcher(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	var seen *Job
	d.Register(TypeNoteDelete, HandlerFunc(func(ctx context.Context, job *Job) error {
		seen = job
		return nil
	}))

	j := &Job{ID: uuid.New(), Type: TypeNoteDelete}
	require.NoError(t, d.Dispatch(context.Background(), j))
	assert.Same(t, j, seen)

	err := d.Dispatch(context.Background(), &Job{Type: TypeTaskCreate})
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.True(t, IsPermanent(err))
}
