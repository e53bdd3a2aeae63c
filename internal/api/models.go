package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/notes-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Username string `json:"username" validate:"required,min=6,max=15"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RefreshTokenRequest is the JSON fallback for clients that cannot send
// the refresh cookie.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by login and refresh. RefreshToken is omitted
// on refresh when the token is not rotated.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// CreateNoteRequest defines the payload for POST /note.
type CreateNoteRequest struct {
	Title   string `json:"title"   validate:"required,min=6,max=100"`
	Content string `json:"content" validate:"required,min=20,max=1000"`
}

// UpdateNoteRequest is a partial update; absent fields are unchanged.
type UpdateNoteRequest struct {
	Title   *string `json:"title"   validate:"omitempty,min=6,max=100"`
	Content *string `json:"content" validate:"omitempty,min=20,max=1000"`
}

// NoteResponse is the public view of a note.
type NoteResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateTaskRequest holds the text fields of the multipart POST /task form.
type CreateTaskRequest struct {
	Title    string `validate:"required,min=6,max=100"`
	Content  string `validate:"required,min=20,max=1000"`
	Priority string `validate:"required,oneof=low medium high"`
}

// UpdateTaskRequest is a partial update; absent fields are unchanged.
type UpdateTaskRequest struct {
	Title    *string `json:"title"    validate:"omitempty,min=6,max=100"`
	Content  *string `json:"content"  validate:"omitempty,min=20,max=1000"`
	Priority *string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// AttachmentResponse describes a task's file without exposing its storage key.
type AttachmentResponse struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID         uuid.UUID           `json:"id"`
	UserID     uuid.UUID           `json:"userId"`
	Username   string              `json:"username,omitempty"`
	Title      string              `json:"title"`
	Content    string              `json:"content"`
	Priority   string              `json:"priority"`
	Attachment *AttachmentResponse `json:"attachment,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

func noteToResponse(n *domain.Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Username:  n.Username,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func taskToResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		Username:  t.Username,
		Title:     t.Title,
		Content:   t.Content,
		Priority:  string(t.Priority),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.Attachment != nil {
		resp.Attachment = &AttachmentResponse{
			Name:        t.Attachment.Name,
			ContentType: t.Attachment.ContentType,
			Size:        t.Attachment.Size,
		}
	}
	return resp
}
