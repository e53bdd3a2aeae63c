package domain

import (
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Field limits shared by domain validation and request models.
const (
	UsernameMinLength = 6
	UsernameMaxLength = 15
	PasswordMinLength = 6
	// PasswordMaxLength is bcrypt's input limit.
	PasswordMaxLength = 72
)

var validate = validator.New()

// User is a registered account. Users are created on registration and never
// deleted by the application itself.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	Password       string    `json:"-"` // Plaintext, only set during registration
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with a fresh ID and timestamps.
// The plaintext password is kept on the struct until the store hashes it.
func NewUser(email, username, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Username:  username,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}

	if u.Email == "" {
		return NewValidationError("email", "is required", ErrInvalidEmail)
	}
	if err := validate.Var(u.Email, "email"); err != nil {
		return NewValidationError("email", "has invalid format", ErrInvalidEmail)
	}

	n := utf8.RuneCountInString(u.Username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return NewValidationError("username", "must be between 6 and 15 characters", ErrValidation)
	}

	if u.Password != "" {
		if len(u.Password) < PasswordMinLength {
			return NewValidationError("password", "must be at least 6 characters long", ErrInvalidPassword)
		}
		if len(u.Password) > PasswordMaxLength {
			return NewValidationError("password", "must be at most 72 bytes long", ErrInvalidPassword)
		}
	} else if u.HashedPassword == "" {
		return NewValidationError("password", "is required", ErrInvalidPassword)
	}

	return nil
}
