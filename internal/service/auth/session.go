package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/store"
)

// UserFinder is the part of store.UserStore the session manager reads.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SessionPair is the result of a login or refresh. RefreshToken is empty
// after a refresh when rotation is off.
type SessionPair struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	Payload         Payload
}

// SessionConfig holds the session policy knobs.
type SessionConfig struct {
	// BlacklistTTL is how long a logged-out access token stays denied.
	BlacklistTTL time.Duration

	// RotateRefreshTokens replaces the presented refresh token on every
	// refresh instead of leaving it valid until logout.
	RotateRefreshTokens bool
}

// SessionManager owns the login, refresh and logout lifecycle. It is the
// only writer of the refresh store and the only producer into the blacklist.
type SessionManager struct {
	users     UserFinder
	refresh   store.RefreshTokenStore
	tokens    TokenService
	passwords PasswordVerifier
	blacklist Blacklist
	config    SessionConfig
	logger    *slog.Logger
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(
	users UserFinder,
	refresh store.RefreshTokenStore,
	tokens TokenService,
	passwords PasswordVerifier,
	blacklist Blacklist,
	cfg SessionConfig,
	log *slog.Logger,
) *SessionManager {
	if log == nil {
		log = slog.Default()
	}
	return &SessionManager{
		users:     users,
		refresh:   refresh,
		tokens:    tokens,
		passwords: passwords,
		blacklist: blacklist,
		config:    cfg,
		logger:    log.With(slog.String("component", "session_manager")),
	}
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*SessionPair, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			// Spend the same bcrypt work as a wrong password so response
			// timing does not reveal which emails are registered.
			_ = m.passwords.Compare(unknownUserHash(), password)
			log.Debug("login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := m.passwords.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login attempt with wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	payload := Payload{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		TokenID:  uuid.New(),
	}
	pair, err := m.issuePair(ctx, payload)
	if err != nil {
		return nil, err
	}

	if err := m.refresh.Create(ctx, domain.NewRefreshToken(user.ID, pair.RefreshToken)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	log.Info("user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh mints a new access token for a stored refresh token. The store is
// consulted before the signature: an unknown token fails with
// ErrRevokedOrUnknownToken even if it is validly signed.
func (m *SessionManager) Refresh(ctx context.Context, refreshToken string) (*SessionPair, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	record, err := m.refresh.GetByToken(ctx, refreshToken)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrRevokedOrUnknownToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	claims, err := m.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		log.Debug("stored refresh token failed verification", "error", err)
		return nil, ErrInvalidToken
	}
	if claims.UserID != record.UserID {
		log.Warn("refresh token record belongs to another user",
			"record_user_id", record.UserID,
			"claims_user_id", claims.UserID)
		return nil, ErrInvalidToken
	}

	payload := claims.Payload
	payload.TokenID = uuid.New()

	if !m.config.RotateRefreshTokens {
		access, expiresAt, err := m.tokens.IssueAccess(ctx, payload)
		if err != nil {
			return nil, err
		}
		return &SessionPair{AccessToken: access, AccessExpiresAt: expiresAt, Payload: payload}, nil
	}

	pair, err := m.issuePair(ctx, payload)
	if err != nil {
		return nil, err
	}
	err = m.refresh.Rotate(ctx, refreshToken, domain.NewRefreshToken(payload.UserID, pair.RefreshToken))
	if err != nil {
		if store.IsNotFoundError(err) {
			// lost a race with logout or a concurrent refresh
			return nil, ErrRevokedOrUnknownToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	log.Debug("refresh token rotated", "user_id", payload.UserID)
	return pair, nil
}

// Logout deletes userID's refresh record and blacklists the access token.
// Neither step fails on tokens that are already gone. A refresh token owned
// by someone else is left alone and the call fails with ErrInvalidToken.
func (m *SessionManager) Logout(ctx context.Context, userID uuid.UUID, refreshToken, accessToken string) error {
	if refreshToken == "" || accessToken == "" {
		return ErrMissingToken
	}
	log := logger.FromContextOrDefault(ctx, m.logger)

	record, err := m.refresh.GetByToken(ctx, refreshToken)
	switch {
	case err == nil && record.UserID != userID:
		log.Warn("logout with another user's refresh token",
			"user_id", userID,
			"record_user_id", record.UserID)
		return ErrInvalidToken
	case err != nil && !store.IsNotFoundError(err):
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if err := m.refresh.DeleteByToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if err := m.blacklist.Add(ctx, accessToken, m.config.BlacklistTTL); err != nil {
		return fmt.Errorf("failed to blacklist access token: %w", err)
	}

	log.Info("user logged out", "user_id", userID)
	return nil
}

// IsRevoked reports whether accessToken was blacklisted. Lookup errors are
// logged and treated as not revoked.
func (m *SessionManager) IsRevoked(ctx context.Context, accessToken string) bool {
	revoked, err := m.blacklist.Contains(ctx, accessToken)
	if err != nil {
		logger.FromContextOrDefault(ctx, m.logger).Error("blacklist lookup failed", "error", err)
		return false
	}
	return revoked
}

// Authenticate checks an access token for the request guard: revoked
// tokens fail with ErrRevokedToken, anything unverifiable with the
// TokenService error.
func (m *SessionManager) Authenticate(ctx context.Context, accessToken string) (*Claims, error) {
	if m.IsRevoked(ctx, accessToken) {
		return nil, ErrRevokedToken
	}
	return m.tokens.VerifyAccess(ctx, accessToken)
}

func (m *SessionManager) issuePair(ctx context.Context, payload Payload) (*SessionPair, error) {
	access, expiresAt, err := m.tokens.IssueAccess(ctx, payload)
	if err != nil {
		return nil, err
	}
	refresh, err := m.tokens.IssueRefresh(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &SessionPair{
		AccessToken:     access,
		AccessExpiresAt: expiresAt,
		RefreshToken:    refresh,
		Payload:         payload,
	}, nil
}

// IsTokenError reports whether err is one of the token verification errors.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrWrongTokenType)
}
