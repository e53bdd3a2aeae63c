package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Title and content limits for notes and tasks.
const (
	TitleMinLength   = 6
	TitleMaxLength   = 100
	ContentMinLength = 20
	ContentMaxLength = 1000
)

// Note is a free-text resource owned by a user.
type Note struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	// Username is the owner's username. Only populated by read queries.
	Username       string    `json:"username,omitempty"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	IdempotencyKey uuid.UUID `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NoteDraft carries the client-supplied fields of a note that does not exist yet.
type NoteDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NotePatch is a partial update; nil fields are left unchanged.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Validate checks the draft fields.
func (d NoteDraft) Validate() error {
	if err := validateTitle(d.Title); err != nil {
		return err
	}
	return validateContent(d.Content)
}

// NewNote builds a note for userID from draft. The idempotency key ties the
// row to the job that created it so a redelivered job inserts nothing.
func NewNote(userID uuid.UUID, draft NoteDraft, idempotencyKey uuid.UUID) (*Note, error) {
	now := time.Now().UTC()
	note := &Note{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          draft.Title,
		Content:        draft.Content,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}
	return note, nil
}

// Validate checks if the Note has valid data.
func (n *Note) Validate() error {
	if n.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if n.UserID == uuid.Nil {
		return NewValidationError("user_id", "is required", ErrInvalidID)
	}
	return NoteDraft{Title: n.Title, Content: n.Content}.Validate()
}

// Apply merges patch into the note and bumps UpdatedAt.
func (n *Note) Apply(patch NotePatch) error {
	updated := *n
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Content != nil {
		updated.Content = *patch.Content
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now().UTC()
	*n = updated
	return nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < TitleMinLength {
		return NewValidationError("title", "cannot be shorter than 6 characters", ErrValidation)
	}
	if n > TitleMaxLength {
		return NewValidationError("title", "cannot be longer than 100 characters", ErrValidation)
	}
	return nil
}

func validateContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < ContentMinLength {
		return NewValidationError("content", "cannot be shorter than 20 characters", ErrValidation)
	}
	if n > ContentMaxLength {
		return NewValidationError("content", "cannot be longer than 1000 characters", ErrValidation)
	}
	return nil
}
