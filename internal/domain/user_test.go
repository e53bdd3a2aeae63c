package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := NewUser("alice@example.com", "alice01", "password123")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice01", user.Username)
	assert.Equal(t, "password123", user.Password)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestUserValidate(t *testing.T) {
	t.Parallel()

	valid := func() User {
		return User{
			ID:       uuid.New(),
			Email:    "alice@example.com",
			Username: "alice01",
			Password: "password123",
		}
	}

	tests := []struct {
		name    string
		mutate  func(u *User)
		field   string
		wantErr error
	}{
		{"valid", func(u *User) {}, "", nil},
		{"hashed password only", func(u *User) { u.Password = ""; u.HashedPassword = "$2a$10$hash" }, "", nil},
		{"nil id", func(u *User) { u.ID = uuid.Nil }, "id", ErrInvalidID},
		{"empty email", func(u *User) { u.Email = "" }, "email", ErrInvalidEmail},
		{"malformed email", func(u *User) { u.Email = "not-an-email" }, "email", ErrInvalidEmail},
		{"short username", func(u *User) { u.Username = "alice" }, "username", ErrValidation},
		{"long username", func(u *User) { u.Username = strings.Repeat("a", 16) }, "username", ErrValidation},
		{"short password", func(u *User) { u.Password = "12345" }, "password", ErrInvalidPassword},
		{"long password", func(u *User) { u.Password = strings.Repeat("p", 73) }, "password", ErrInvalidPassword},
		{"no password at all", func(u *User) { u.Password = "" }, "password", ErrInvalidPassword},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u := valid()
			tt.mutate(&u)

			err := u.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUsernameLengthCountsRunes(t *testing.T) {
	t.Parallel()

	// Six runes, twelve bytes.
	user, err := NewUser("bob@example.com", "ббббб1", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ббббб1", user.Username)
}

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewValidationError("title", "cannot be empty", nil)
	assert.Equal(t, "title cannot be empty", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
}
