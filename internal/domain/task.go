package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskPriority ranks a task.
type TaskPriority string

// Valid task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// DefaultMaxAttachmentSize is the upload limit when none is configured.
const DefaultMaxAttachmentSize int64 = 5 << 20

// AllowedAttachmentTypes lists the content types a task attachment may have.
var AllowedAttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/pdf": true,
}

// Attachment describes the file stored alongside a task.
type Attachment struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Task is a prioritized work item owned by a user, optionally with a file.
type Task struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	// Username is the owner's username. Only populated by read queries.
	Username       string       `json:"username,omitempty"`
	Title          string       `json:"title"`
	Content        string       `json:"content"`
	Priority       TaskPriority `json:"priority"`
	Attachment     *Attachment  `json:"attachment,omitempty"`
	IdempotencyKey uuid.UUID    `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TaskDraft carries the client-supplied fields of a task that does not exist yet.
type TaskDraft struct {
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	Priority TaskPriority `json:"priority"`
}

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title    *string       `json:"title,omitempty"`
	Content  *string       `json:"content,omitempty"`
	Priority *TaskPriority `json:"priority,omitempty"`
}

// Validate checks the draft fields.
func (d TaskDraft) Validate() error {
	if err := validateTitle(d.Title); err != nil {
		return err
	}
	if err := validateContent(d.Content); err != nil {
		return err
	}
	if !d.Priority.Valid() {
		return NewValidationError("priority", "must be one of low, medium, high", ErrInvalidPriority)
	}
	return nil
}

// NewTask builds a task for userID from draft.
func NewTask(userID uuid.UUID, draft TaskDraft, idempotencyKey uuid.UUID) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          draft.Title,
		Content:        draft.Content,
		Priority:       draft.Priority,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if t.UserID == uuid.Nil {
		return NewValidationError("user_id", "is required", ErrInvalidID)
	}
	return TaskDraft{Title: t.Title, Content: t.Content, Priority: t.Priority}.Validate()
}

// Apply merges patch into the task and bumps UpdatedAt.
func (t *Task) Apply(patch TaskPatch) error {
	updated := *t
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Content != nil {
		updated.Content = *patch.Content
	}
	if patch.Priority != nil {
		updated.Priority = *patch.Priority
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now().UTC()
	*t = updated
	return nil
}

// ValidateAttachment checks an uploaded file against the accepted types and
// maxSize. A non-positive maxSize falls back to DefaultMaxAttachmentSize.
func ValidateAttachment(name, contentType string, size, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxAttachmentSize
	}
	if name == "" || size <= 0 {
		return NewValidationError("file", "is required", ErrInvalidAttachment)
	}
	if !AllowedAttachmentTypes[strings.ToLower(contentType)] {
		return NewValidationError("file", "has invalid type: "+contentType, ErrInvalidAttachment)
	}
	if size > maxSize {
		return NewValidationError("file", "exceeds the maximum size", ErrInvalidAttachment)
	}
	return nil
}

// SanitizeFileName strips directories and characters that are unsafe in
// object keys, keeping the extension.
func SanitizeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := strings.TrimLeft(b.String(), ".")
	if s == "" {
		return "file"
	}
	return s
}
