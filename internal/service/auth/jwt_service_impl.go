package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/config"
	"github.com/phrazzld/notes-api/internal/platform/logger"
)

// minSecretLength matches the config validation rule for both secrets.
const minSecretLength = 32

// hmacTokenService is an implementation of TokenService using HMAC-SHA256.
type hmacTokenService struct {
	accessKey            []byte
	refreshKey           []byte
	accessTokenLifetime  time.Duration
	refreshTokenLifetime time.Duration    // zero means no exp claim
	timeFunc             func() time.Time // Injectable for testing
	clockSkew            time.Duration
}

// jwtCustomClaims defines the structure of JWT claims we use
type jwtCustomClaims struct {
	UserID    uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	TokenID   uuid.UUID `json:"tokenId"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

var _ TokenService = (*hmacTokenService)(nil)

// NewTokenService creates a TokenService from the auth configuration.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	return newTokenService(cfg, time.Now)
}

func newTokenService(cfg config.AuthConfig, now func() time.Time) (*hmacTokenService, error) {
	if len(cfg.AccessTokenSecret) < minSecretLength || len(cfg.RefreshTokenSecret) < minSecretLength {
		return nil, fmt.Errorf("token secrets must be at least %d characters", minSecretLength)
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	if cfg.AccessTokenLifetime <= 0 {
		return nil, errors.New("access token lifetime must be positive")
	}

	return &hmacTokenService{
		accessKey:            []byte(cfg.AccessTokenSecret),
		refreshKey:           []byte(cfg.RefreshTokenSecret),
		accessTokenLifetime:  cfg.AccessTokenLifetime,
		refreshTokenLifetime: cfg.RefreshTokenLifetime,
		timeFunc:             now,
		clockSkew:            cfg.ClockSkew,
	}, nil
}

// IssueAccess creates a signed access token with an exp claim.
func (s *hmacTokenService) IssueAccess(ctx context.Context, payload Payload) (string, time.Time, error) {
	expiresAt := s.timeFunc().Add(s.accessTokenLifetime)
	token, err := s.sign(ctx, payload, TokenTypeAccess, s.accessKey, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueRefresh creates a signed refresh token. It only carries exp when a
// refresh lifetime is configured.
func (s *hmacTokenService) IssueRefresh(ctx context.Context, payload Payload) (string, error) {
	var expiresAt time.Time
	if s.refreshTokenLifetime > 0 {
		expiresAt = s.timeFunc().Add(s.refreshTokenLifetime)
	}
	return s.sign(ctx, payload, TokenTypeRefresh, s.refreshKey, expiresAt)
}

func (s *hmacTokenService) sign(ctx context.Context, p Payload, tokenType string, key []byte, expiresAt time.Time) (string, error) {
	claims := jwtCustomClaims{
		UserID:    p.UserID,
		Email:     p.Email,
		Username:  p.Username,
		TokenID:   p.TokenID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  p.UserID.String(),
			IssuedAt: jwt.NewNumericDate(s.timeFunc()),
		},
	}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign token",
			"error", err,
			"user_id", p.UserID,
			"token_type", tokenType)
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// VerifyAccess validates an access token.
func (s *hmacTokenService) VerifyAccess(ctx context.Context, token string) (*Claims, error) {
	return s.verify(ctx, token, TokenTypeAccess, s.accessKey)
}

// VerifyRefresh validates a refresh token.
func (s *hmacTokenService) VerifyRefresh(ctx context.Context, token string) (*Claims, error) {
	return s.verify(ctx, token, TokenTypeRefresh, s.refreshKey)
}

func (s *hmacTokenService) verify(ctx context.Context, tokenString, tokenType string, key []byte) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug("token validation failed: token expired", "token_type", tokenType)
			return nil, ErrExpiredToken
		}
		log.Debug("token validation failed",
			"error", err,
			"token_type", tokenType)
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		log.Debug("token validation failed: wrong token type",
			"expected", tokenType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	out := &Claims{
		Payload: Payload{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
			TokenID:  claims.TokenID,
		},
		TokenType: claims.TokenType,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
