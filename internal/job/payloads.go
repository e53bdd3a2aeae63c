package job

import (
	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/domain"
)

// NoteCreatePayload is the payload of a TypeNoteCreate job.
type NoteCreatePayload struct {
	OwnerID uuid.UUID        `json:"owner_id"`
	Draft   domain.NoteDraft `json:"draft"`
}

// TaskCreatePayload is the payload of a TypeTaskCreate job.
type TaskCreatePayload struct {
	OwnerID uuid.UUID        `json:"owner_id"`
	Draft   domain.TaskDraft `json:"draft"`
	File    *FilePayload     `json:"file,omitempty"`
}

// FilePayload carries an uploaded file inside a job. Data is base64 encoded
// on the wire by encoding/json.
type FilePayload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// DeletePayload is the payload of TypeNoteDelete and TypeTaskDelete jobs.
type DeletePayload struct {
	ResourceID uuid.UUID `json:"resource_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
}
