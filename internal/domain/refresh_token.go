package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the server-side record of an issued refresh token. A
// refresh token is only honored while its record exists.
type RefreshToken struct {
	ID        uuid.UUID
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
}

// NewRefreshToken wraps a signed token string for userID.
func NewRefreshToken(userID uuid.UUID, token string) *RefreshToken {
	return &RefreshToken{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
}
