package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/store"
)

// PostgresRefreshTokenStore implements store.RefreshTokenStore. It needs a
// *sql.DB rather than a DBTX because Rotate opens its own transaction.
type PostgresRefreshTokenStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRefreshTokenStore creates a refresh token store.
func NewPostgresRefreshTokenStore(db *sql.DB, logger *slog.Logger) *PostgresRefreshTokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRefreshTokenStore{
		db:     db,
		logger: logger.With(slog.String("component", "refresh_token_store")),
	}
}

var _ store.RefreshTokenStore = (*PostgresRefreshTokenStore)(nil)

const insertRefreshTokenQuery = `
	INSERT INTO refresh_tokens (id, token, user_id, created_at)
	VALUES ($1, $2, $3, $4)
`

// Create implements store.RefreshTokenStore.Create
func (s *PostgresRefreshTokenStore) Create(ctx context.Context, token *domain.RefreshToken) error {
	return s.insert(ctx, s.db, token)
}

func (s *PostgresRefreshTokenStore) insert(ctx context.Context, db store.DBTX, token *domain.RefreshToken) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := db.ExecContext(ctx, insertRefreshTokenQuery,
		token.ID, token.Token, token.UserID, token.CreatedAt)
	if err != nil {
		log.Error("failed to store refresh token",
			slog.String("error", err.Error()),
			slog.String("user_id", token.UserID.String()))
		return MapError(err)
	}
	return nil
}

// GetByToken implements store.RefreshTokenStore.GetByToken
func (s *PostgresRefreshTokenStore) GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, token, user_id, created_at
		FROM refresh_tokens
		WHERE token = $1
	`
	var rt domain.RefreshToken
	err := s.db.QueryRowContext(ctx, query, token).Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRefreshTokenNotFound
		}
		log.Error("failed to look up refresh token", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return &rt, nil
}

// DeleteByToken implements store.RefreshTokenStore.DeleteByToken
func (s *PostgresRefreshTokenStore) DeleteByToken(ctx context.Context, token string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		log.Error("failed to delete refresh token", slog.String("error", err.Error()))
		return MapError(err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		log.Debug("refresh token already absent")
	}
	return nil
}

// Rotate implements store.RefreshTokenStore.Rotate
func (s *PostgresRefreshTokenStore) Rotate(ctx context.Context, oldToken string, next *domain.RefreshToken) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, oldToken)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, store.ErrRefreshTokenNotFound); err != nil {
			return err
		}
		return s.insert(ctx, tx, next)
	})
}
