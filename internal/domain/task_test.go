package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPriorityValid(t *testing.T) {
	t.Parallel()

	for _, p := range []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh} {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, TaskPriority("urgent").Valid())
	assert.False(t, TaskPriority("").Valid())
	assert.False(t, TaskPriority("HIGH").Valid())
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		task, err := NewTask(uuid.New(), TaskDraft{Title: "Fix sink", Content: validContent, Priority: TaskPriorityHigh}, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, TaskPriorityHigh, task.Priority)
		assert.Nil(t, task.Attachment)
	})

	t.Run("invalid priority", func(t *testing.T) {
		_, err := NewTask(uuid.New(), TaskDraft{Title: "Fix sink", Content: validContent, Priority: "urgent"}, uuid.New())
		assert.ErrorIs(t, err, ErrInvalidPriority)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTaskApply(t *testing.T) {
	t.Parallel()

	task, err := NewTask(uuid.New(), TaskDraft{Title: "Fix sink", Content: validContent, Priority: TaskPriorityLow}, uuid.New())
	require.NoError(t, err)

	high := TaskPriorityHigh
	require.NoError(t, task.Apply(TaskPatch{Priority: &high}))
	assert.Equal(t, TaskPriorityHigh, task.Priority)
	assert.Equal(t, "Fix sink", task.Title)

	bad := TaskPriority("later")
	require.ErrorIs(t, task.Apply(TaskPatch{Priority: &bad}), ErrInvalidPriority)
	assert.Equal(t, TaskPriorityHigh, task.Priority)
}

func TestValidateAttachment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		fileName    string
		contentType string
		size        int64
		maxSize     int64
		wantErr     bool
	}{
		{"png", "photo.png", "image/png", 1024, 0, false},
		{"jpeg", "photo.jpeg", "image/jpeg", 1024, 0, false},
		{"jpg alias", "photo.jpg", "image/jpg", 1024, 0, false},
		{"pdf", "doc.pdf", "application/pdf", 1024, 0, false},
		{"uppercase type", "doc.pdf", "APPLICATION/PDF", 1024, 0, false},
		{"exactly at limit", "doc.pdf", "application/pdf", DefaultMaxAttachmentSize, 0, false},
		{"over default limit", "doc.pdf", "application/pdf", DefaultMaxAttachmentSize + 1, 0, true},
		{"over custom limit", "doc.pdf", "application/pdf", 2048, 1024, true},
		{"wrong type", "notes.txt", "text/plain", 10, 0, true},
		{"missing name", "", "image/png", 10, 0, true},
		{"empty file", "photo.png", "image/png", 0, 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateAttachment(tt.fileName, tt.contentType, tt.size, tt.maxSize)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAttachment)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"report.pdf":          "report.pdf",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\cat.png`: "cat.png",
		"my photo (1).jpg":    "my_photo__1_.jpg",
		".hidden":             "hidden",
		"..":                  "file",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFileName(in), in)
	}
}
