package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/notes-api/internal/api/shared"
	"github.com/phrazzld/notes-api/internal/config"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/service"
	"github.com/phrazzld/notes-api/internal/service/auth"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// SessionService is the part of auth.SessionManager the handlers use.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*auth.SessionPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.SessionPair, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken, accessToken string) error
}

var _ SessionService = (*auth.SessionManager)(nil)

// AuthHandler handles registration and the session lifecycle.
type AuthHandler struct {
	users    service.UserService
	sessions SessionService
	cookie   cookieSettings
	logger   *slog.Logger
}

type cookieSettings struct {
	path   string
	secure bool
	maxAge time.Duration
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	users service.UserService,
	sessions SessionService,
	cfg config.AuthConfig,
	log *slog.Logger,
) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	path := cfg.RefreshCookiePath
	if path == "" {
		path = "/auth/refresh"
	}
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		cookie: cookieSettings{
			path:   path,
			secure: cfg.SecureCookies,
			maxAge: cfg.RefreshTokenLifetime,
		},
		logger: log.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, userToResponse(user))
}

// Login handles POST /auth/login. The refresh token is returned in the body
// and in an HttpOnly cookie scoped to the refresh path.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	pair, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.sessions.Refresh(r.Context(), refreshTokenFromRequest(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}

	if pair.RefreshToken != "" {
		h.setRefreshCookie(w, pair.RefreshToken)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout handles POST /auth/logout. It runs behind the auth middleware, which
// supplies the caller's id and the access token to blacklist.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, err := getUserIDFromContext(r)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to log out")
		return
	}
	refreshToken := refreshTokenFromRequest(r)
	accessToken := shared.AccessTokenFromContext(r.Context())

	if err := h.sessions.Logout(r.Context(), userID, refreshToken, accessToken); err != nil {
		if errors.Is(err, auth.ErrMissingToken) {
			log.Debug("logout without both tokens",
				"has_refresh", refreshToken != "",
				"has_access", accessToken != "")
		}
		HandleAPIError(w, r, err, "Failed to log out")
		return
	}

	h.clearRefreshCookie(w)
	shared.RespondWithMessage(w, r, http.StatusOK, "logout successfully")
}

// refreshTokenFromRequest prefers the cookie and falls back to a JSON body.
func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	var body RefreshTokenRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		return ""
	}
	return body.RefreshToken
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	c := &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     h.cookie.path,
		HttpOnly: true,
		Secure:   h.cookie.secure,
		SameSite: http.SameSiteStrictMode,
	}
	if h.cookie.maxAge > 0 {
		c.MaxAge = int(h.cookie.maxAge.Seconds())
	}
	http.SetCookie(w, c)
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     h.cookie.path,
		HttpOnly: true,
		Secure:   h.cookie.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}
