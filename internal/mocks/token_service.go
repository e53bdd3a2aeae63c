package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/notes-api/internal/service/auth"
)

// MockTokenService implements auth.TokenService for testing
type MockTokenService struct {
	IssueAccessFn   func(ctx context.Context, payload auth.Payload) (string, time.Time, error)
	IssueRefreshFn  func(ctx context.Context, payload auth.Payload) (string, error)
	VerifyAccessFn  func(ctx context.Context, token string) (*auth.Claims, error)
	VerifyRefreshFn func(ctx context.Context, token string) (*auth.Claims, error)

	// Defaults used when the functions aren't set
	AccessToken  string
	RefreshToken string
	Claims       *auth.Claims
	Err          error
}

var _ auth.TokenService = (*MockTokenService)(nil)

// IssueAccess implements the auth.TokenService interface
func (m *MockTokenService) IssueAccess(ctx context.Context, payload auth.Payload) (string, time.Time, error) {
	if m.IssueAccessFn != nil {
		return m.IssueAccessFn(ctx, payload)
	}
	return m.AccessToken, time.Now().Add(time.Hour), m.Err
}

// IssueRefresh implements the auth.TokenService interface
func (m *MockTokenService) IssueRefresh(ctx context.Context, payload auth.Payload) (string, error) {
	if m.IssueRefreshFn != nil {
		return m.IssueRefreshFn(ctx, payload)
	}
	return m.RefreshToken, m.Err
}

// VerifyAccess implements the auth.TokenService interface
func (m *MockTokenService) VerifyAccess(ctx context.Context, token string) (*auth.Claims, error) {
	if m.VerifyAccessFn != nil {
		return m.VerifyAccessFn(ctx, token)
	}
	return m.Claims, m.Err
}

// VerifyRefresh implements the auth.TokenService interface
func (m *MockTokenService) VerifyRefresh(ctx context.Context, token string) (*auth.Claims, error) {
	if m.VerifyRefreshFn != nil {
		return m.VerifyRefreshFn(ctx, token)
	}
	return m.Claims, m.Err
}
