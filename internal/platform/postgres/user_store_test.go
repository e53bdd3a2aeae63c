package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/platform/postgres"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userColumns = []string{"id", "email", "username", "hashed_password", "created_at", "updated_at"}

func TestPostgresUserStore_Create(t *testing.T) {
	t.Run("hashes password and inserts", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresUserStore(db, bcrypt.MinCost, discardLogger())

		user, err := domain.NewUser("alice@x.com", "alice123", "secret1")
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID, "alice@x.com", "alice123", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), user))
		assert.Empty(t, user.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("secret1")))
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresUserStore(db, bcrypt.MinCost, discardLogger())

		user, err := domain.NewUser("alice@x.com", "alice123", "secret1")
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		err = s.Create(context.Background(), user)
		assert.ErrorIs(t, err, store.ErrEmailExists)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("invalid user never reaches the database", func(t *testing.T) {
		db, _ := newMockDB(t)
		s := postgres.NewPostgresUserStore(db, bcrypt.MinCost, discardLogger())

		err := s.Create(context.Background(), &domain.User{ID: uuid.New(), Email: "bad", Username: "alice123", Password: "secret1"})
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})
}

func TestPostgresUserStore_Get(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()

	t.Run("by email", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresUserStore(db, 0, discardLogger())

		mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE email = \$1`).
			WithArgs("alice@x.com").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(id.String(), "alice@x.com", "alice123", "$2a$10$hash", now, now))

		user, err := s.GetByEmail(context.Background(), "alice@x.com")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "alice123", user.Username)
		assert.Equal(t, "$2a$10$hash", user.HashedPassword)
	})

	t.Run("by id not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := postgres.NewPostgresUserStore(db, 0, discardLogger())

		mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE id = \$1`).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := s.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}
