package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/phrazzld/notes-api/internal/store"
)

// MockBlobStore implements store.BlobStore for testing
type MockBlobStore struct {
	PutFn    func(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	DeleteFn func(ctx context.Context, key string) error

	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

var _ store.BlobStore = (*MockBlobStore)(nil)

// NewMockBlobStore creates an empty mock blob store
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{objects: make(map[string][]byte)}
}

// Put implements the BlobStore interface
func (m *MockBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, key, r, size, contentType)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.puts++
	return nil
}

// Delete implements the BlobStore interface
func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Object returns the stored bytes for key.
func (m *MockBlobStore) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// Puts reports how many successful writes happened.
func (m *MockBlobStore) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
