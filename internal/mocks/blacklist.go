package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/notes-api/internal/service/auth"
)

// MockBlacklist implements auth.Blacklist with fixed errors on top of an
// in-memory blacklist.
type MockBlacklist struct {
	*auth.MemoryBlacklist
	AddErr      error
	ContainsErr error
}

var _ auth.Blacklist = (*MockBlacklist)(nil)

// NewMockBlacklist creates a MockBlacklist with no injected errors.
func NewMockBlacklist() *MockBlacklist {
	return &MockBlacklist{MemoryBlacklist: auth.NewMemoryBlacklist()}
}

// Add implements the auth.Blacklist interface
func (m *MockBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	return m.MemoryBlacklist.Add(ctx, token, ttl)
}

// Contains implements the auth.Blacklist interface
func (m *MockBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	if m.ContainsErr != nil {
		return false, m.ContainsErr
	}
	return m.MemoryBlacklist.Contains(ctx, token)
}
