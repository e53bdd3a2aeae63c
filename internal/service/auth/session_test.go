package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/config"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/mocks"
	"github.com/phrazzld/notes-api/internal/service/auth"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	manager   *auth.SessionManager
	users     *mocks.MockUserStore
	refresh   *mocks.MockRefreshTokenStore
	blacklist *mocks.MockBlacklist
	tokens    auth.TokenService
	alice     *domain.User
}

func newSessionFixture(t *testing.T, rotate bool) *sessionFixture {
	t.Helper()

	tokens, err := auth.NewTokenService(config.AuthConfig{
		AccessTokenSecret:   "access-secret-that-is-long-enough-for-hs256",
		RefreshTokenSecret:  "refresh-secret-that-is-long-enough-for-hs256",
		AccessTokenLifetime: 15 * time.Minute,
	})
	require.NoError(t, err)

	users := mocks.NewMockUserStore()
	alice, err := domain.NewUser("alice@x.com", "alice1", "secret1")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), alice))

	refresh := mocks.NewMockRefreshTokenStore()
	blacklist := mocks.NewMockBlacklist()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &sessionFixture{
		manager: auth.NewSessionManager(users, refresh, tokens, auth.NewBcryptVerifier(), blacklist,
			auth.SessionConfig{BlacklistTTL: 600 * time.Second, RotateRefreshTokens: rotate}, log),
		users:     users,
		refresh:   refresh,
		blacklist: blacklist,
		tokens:    tokens,
		alice:     alice,
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, false)
	ctx := context.Background()

	pair, err := f.manager.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	records := f.refresh.Records()
	require.Len(t, records, 1)
	assert.Equal(t, pair.RefreshToken, records[0].Token)
	assert.Equal(t, f.alice.ID, records[0].UserID)

	claims, err := f.tokens.VerifyAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, claims.UserID)
	assert.Equal(t, "alice1", claims.Username)
	assert.Equal(t, pair.Payload.TokenID, claims.TokenID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "bob@x.com", "secret1"},
		{"wrong password", "alice@x.com", "wrong"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newSessionFixture(t, false)

			pair, err := f.manager.Login(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
			assert.Nil(t, pair)
			assert.Empty(t, f.refresh.Records())
		})
	}
}

func TestLoginComparesPasswordForUnknownEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		email string
	}{
		{"unknown email", "bob@x.com"},
		{"known email", "alice@x.com"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newSessionFixture(t, false)
			verifier := &mocks.MockPasswordVerifier{}
			var gotHash string
			verifier.CompareFn = func(hashedPassword, password string) error {
				gotHash = hashedPassword
				return errors.New("password mismatch")
			}
			manager := auth.NewSessionManager(f.users, f.refresh, f.tokens, verifier, f.blacklist,
				auth.SessionConfig{BlacklistTTL: time.Minute},
				slog.New(slog.NewTextHandler(io.Discard, nil)))

			_, err := manager.Login(context.Background(), tt.email, "wrong")
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
			assert.Equal(t, 1, verifier.CallCount())
			assert.True(t, strings.HasPrefix(gotHash, "$2a$"), "compared against a bcrypt hash: %q", gotHash)
		})
	}
}

func TestLoginStoreFailure(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, false)
	f.users.GetByEmailFn = func(ctx context.Context, email string) (*domain.User, error) {
		return nil, errors.New("connection reset")
	}

	_, err := f.manager.Login(context.Background(), "alice@x.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRefreshUnknownSignedToken(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, false)
	ctx := context.Background()

	// validly signed but never stored
	token, err := f.tokens.IssueRefresh(ctx, auth.Payload{UserID: f.alice.ID, TokenID: uuid.New()})
	require.NoError(t, err)

	_, err = f.manager.Refresh(ctx, token)
	assert.ErrorIs(t, err, auth.ErrRevokedOrUnknownToken)

	_, err = f.manager.Refresh(ctx, "")
	assert.ErrorIs(t, err, auth.ErrMissingToken)
}

func TestRefreshStoredButUnverifiable(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.refresh.Create(ctx, domain.NewRefreshToken(f.alice.ID, "not-a-jwt")))

	_, err := f.manager.Refresh(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshStatic(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, false)
	ctx := context.Background()

	login, err := f.manager.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		refreshed, err := f.manager.Refresh(ctx, login.RefreshToken)
		require.NoError(t, err)
		assert.Empty(t, refreshed.RefreshToken)
		assert.NotEqual(t, login.Payload.TokenID, refreshed.Payload.TokenID)

		claims, err := f.tokens.VerifyAccess(ctx, refreshed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, f.alice.ID, claims.UserID)
	}

	assert.Len(t, f.refresh.Records(), 1)
}

func TestRefreshRotating(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, true)
	ctx := context.Background()

	login, err := f.manager.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	refreshed, err := f.manager.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.RefreshToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	records := f.refresh.Records()
	require.Len(t, records, 1)
	assert.Equal(t, refreshed.RefreshToken, records[0].Token)

	_, err = f.manager.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRevokedOrUnknownToken)

	_, err = f.manager.Refresh(ctx, refreshed.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRotationRace(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, true)
	ctx := context.Background()

	login, err := f.manager.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	f.refresh.RotateFn = func(ctx context.Context, oldToken string, next *domain.RefreshToken) error {
		return store.ErrRefreshTokenNotFound
	}
	_, err = f.manager.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRevokedOrUnknownToken)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, false)
	ctx := context.Background()

	pair, err := f.manager.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)
	assert.False(t, f.manager.IsRevoked(ctx, pair.AccessToken))

	require.NoError(t, f.manager.Logout(ctx, f.alice.ID, pair.RefreshToken, pair.AccessToken))

	assert.True(t, f.manager.IsRevoked(ctx, pair.AccessToken))
	assert.Empty(t, f.refresh.Records())

	_, err = f.manager.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRevokedOrUnknownToken)

	_, err = f.manager.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrRevokedToken)

	// a second logout of the same session is harmless
	assert.NoError(t, f.manager.Logout(ctx, f.alice.ID, pair.RefreshToken, pair.AccessToken))
}

func TestLogoutRejectsAnotherUsersRefreshToken(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, false)
	ctx := context.Background()

	alicePair, err := f.manager.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	bob, err := domain.NewUser("bob@x.com", "bob1", "secret2")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(ctx, bob))
	bobPair, err := f.manager.Login(ctx, "bob@x.com", "secret2")
	require.NoError(t, err)

	err = f.manager.Logout(ctx, bob.ID, alicePair.RefreshToken, bobPair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	assert.Len(t, f.refresh.Records(), 2)
	assert.False(t, f.manager.IsRevoked(ctx, bobPair.AccessToken))

	refreshed, err := f.manager.Refresh(ctx, alicePair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, refreshed.Payload.UserID)
}

func TestLogoutFailures(t *testing.T) {
	t.Parallel()

	t.Run("missing tokens", func(t *testing.T) {
		t.Parallel()
		f := newSessionFixture(t, false)
		assert.ErrorIs(t, f.manager.Logout(context.Background(), f.alice.ID, "", "a"), auth.ErrMissingToken)
		assert.ErrorIs(t, f.manager.Logout(context.Background(), f.alice.ID, "r", ""), auth.ErrMissingToken)
	})

	t.Run("store lookup fails", func(t *testing.T) {
		t.Parallel()
		f := newSessionFixture(t, false)
		f.refresh.GetByTokenFn = func(ctx context.Context, token string) (*domain.RefreshToken, error) {
			return nil, errors.New("db down")
		}
		err := f.manager.Logout(context.Background(), f.alice.ID, "r", "a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to look up refresh token")
		assert.False(t, f.manager.IsRevoked(context.Background(), "a"))
	})

	t.Run("store delete fails", func(t *testing.T) {
		t.Parallel()
		f := newSessionFixture(t, false)
		f.refresh.DeleteByTokenFn = func(ctx context.Context, token string) error {
			return errors.New("db down")
		}
		err := f.manager.Logout(context.Background(), f.alice.ID, "r", "a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete refresh token")
	})

	t.Run("cache write fails", func(t *testing.T) {
		t.Parallel()
		f := newSessionFixture(t, false)
		f.blacklist.AddErr = errors.New("redis down")
		err := f.manager.Logout(context.Background(), f.alice.ID, "r", "a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to blacklist access token")
	})
}

func TestIsRevokedTreatsLookupErrorsAsNotRevoked(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.blacklist.Add(ctx, "a", time.Minute))

	f.blacklist.ContainsErr = errors.New("redis down")
	assert.False(t, f.manager.IsRevoked(ctx, "a"))
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	f := newSessionFixture(t, false)
	ctx := context.Background()

	pair, err := f.manager.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	claims, err := f.manager.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, claims.UserID)

	_, err = f.manager.Authenticate(ctx, pair.RefreshToken)
	assert.True(t, auth.IsTokenError(err))
}
