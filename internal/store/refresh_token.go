package store

import (
	"context"

	"github.com/phrazzld/notes-api/internal/domain"
)

// RefreshTokenStore keeps one record per issued refresh token.
type RefreshTokenStore interface {
	// Create inserts a record for a newly issued token.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetByToken looks a record up by the verbatim token string.
	// Returns ErrRefreshTokenNotFound if there is none.
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)

	// DeleteByToken removes the record for token. Deleting a token that has
	// no record is not an error.
	DeleteByToken(ctx context.Context, token string) error

	// Rotate atomically deletes the record for oldToken and inserts next.
	// Returns ErrRefreshTokenNotFound, and inserts nothing, if oldToken has
	// no record.
	Rotate(ctx context.Context, oldToken string, next *domain.RefreshToken) error
}
