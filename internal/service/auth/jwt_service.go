package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Payload identifies the session a token belongs to. TokenID is a fresh
// nonce per issuance, so two tokens minted in the same second still differ.
type Payload struct {
	UserID   uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	TokenID  uuid.UUID `json:"tokenId"`
}

// Claims is a verified token's payload plus its registered claims.
// ExpiresAt is zero for refresh tokens issued without a lifetime.
type Claims struct {
	Payload
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService signs and verifies access and refresh tokens. Each kind is
// signed with its own secret.
type TokenService interface {
	// IssueAccess signs an access token and reports when it expires.
	IssueAccess(ctx context.Context, payload Payload) (string, time.Time, error)

	// IssueRefresh signs a refresh token.
	IssueRefresh(ctx context.Context, payload Payload) (string, error)

	// VerifyAccess validates an access token. Failures are ErrInvalidToken,
	// ErrExpiredToken or ErrWrongTokenType.
	VerifyAccess(ctx context.Context, token string) (*Claims, error)

	// VerifyRefresh validates a refresh token with the same error set.
	VerifyRefresh(ctx context.Context, token string) (*Claims, error)
}
