package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/store"
)

// MockRefreshTokenStore implements store.RefreshTokenStore for testing
type MockRefreshTokenStore struct {
	CreateFn        func(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenFn    func(ctx context.Context, token string) (*domain.RefreshToken, error)
	DeleteByTokenFn func(ctx context.Context, token string) error
	RotateFn        func(ctx context.Context, oldToken string, next *domain.RefreshToken) error

	mu      sync.Mutex
	records map[string]*domain.RefreshToken
}

var _ store.RefreshTokenStore = (*MockRefreshTokenStore)(nil)

// NewMockRefreshTokenStore creates an empty mock refresh store
func NewMockRefreshTokenStore() *MockRefreshTokenStore {
	return &MockRefreshTokenStore{records: make(map[string]*domain.RefreshToken)}
}

// Create implements the RefreshTokenStore interface
func (m *MockRefreshTokenStore) Create(ctx context.Context, token *domain.RefreshToken) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[token.Token]; exists {
		return store.ErrDuplicate
	}
	m.records[token.Token] = token
	return nil
}

// GetByToken implements the RefreshTokenStore interface
func (m *MockRefreshTokenStore) GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	if m.GetByTokenFn != nil {
		return m.GetByTokenFn(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[token]
	if !ok {
		return nil, store.ErrRefreshTokenNotFound
	}
	return rec, nil
}

// DeleteByToken implements the RefreshTokenStore interface
func (m *MockRefreshTokenStore) DeleteByToken(ctx context.Context, token string) error {
	if m.DeleteByTokenFn != nil {
		return m.DeleteByTokenFn(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, token)
	return nil
}

// Rotate implements the RefreshTokenStore interface
func (m *MockRefreshTokenStore) Rotate(ctx context.Context, oldToken string, next *domain.RefreshToken) error {
	if m.RotateFn != nil {
		return m.RotateFn(ctx, oldToken, next)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[oldToken]; !ok {
		return store.ErrRefreshTokenNotFound
	}
	delete(m.records, oldToken)
	m.records[next.Token] = next
	return nil
}

// Records returns a snapshot of the stored records.
func (m *MockRefreshTokenStore) Records() []*domain.RefreshToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.RefreshToken, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out
}
