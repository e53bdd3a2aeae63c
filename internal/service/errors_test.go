package service

import (
	"errors"
	"testing"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"with underlying error", errors.New("database connection failed"), "note service list operation failed: database connection failed"},
		{"with sentinel", store.ErrNoteNotFound, "note service list operation failed: entity not found: note"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewServiceError("note", "list", tt.err)
			assert.Equal(t, tt.expected, err.Error())
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.Nil(t, NewServiceError("note", "list", nil))

	inner := NewServiceError("task", "get", errors.New("boom"))
	assert.Same(t, inner, NewServiceError("note", "list", inner))
}

func TestErrNotOwnedIsForbidden(t *testing.T) {
	assert.ErrorIs(t, ErrNotOwned, domain.ErrForbidden)
	assert.ErrorIs(t, ErrAttachmentRequired, domain.ErrValidation)
	assert.ErrorIs(t, ErrAttachmentRequired, domain.ErrInvalidAttachment)
}
