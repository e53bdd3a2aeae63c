package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/mocks"
	"github.com/phrazzld/notes-api/internal/service"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		username string
		password string
		storeErr error
		wantErr  error
	}{
		{name: "valid", email: "alice@x.com", username: "alice1", password: "secret1"},
		{name: "invalid email", email: "alice", username: "alice1", password: "secret1", wantErr: domain.ErrValidation},
		{name: "short username", email: "alice@x.com", username: "al", password: "secret1", wantErr: domain.ErrValidation},
		{name: "short password", email: "alice@x.com", username: "alice1", password: "123", wantErr: domain.ErrValidation},
		{name: "duplicate email", email: "alice@x.com", username: "alice1", password: "secret1", storeErr: store.ErrEmailExists, wantErr: store.ErrEmailExists},
		{name: "store failure", email: "alice@x.com", username: "alice1", password: "secret1", storeErr: errors.New("db down")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := mocks.NewMockUserStore()
			if tt.storeErr != nil {
				users.CreateFn = func(ctx context.Context, user *domain.User) error { return tt.storeErr }
			}
			svc := service.NewUserService(users, testLogger())

			user, err := svc.Register(context.Background(), tt.email, tt.username, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			case tt.storeErr != nil:
				var se *service.ServiceError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, "register", se.Operation)
			default:
				require.NoError(t, err)
				assert.Equal(t, "alice1", user.Username)
				assert.Empty(t, user.Password)
				assert.NotEmpty(t, user.HashedPassword)
			}
		})
	}
}

func TestUserService_GetUser(t *testing.T) {
	t.Parallel()

	users := mocks.NewMockUserStore()
	svc := service.NewUserService(users, testLogger())
	alice, err := svc.Register(context.Background(), "alice@x.com", "alice1", "secret1")
	require.NoError(t, err)

	got, err := svc.GetUser(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", got.Email)

	_, err = svc.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
