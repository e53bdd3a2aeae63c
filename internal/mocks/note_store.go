package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/store"
)

// MockNoteStore implements store.NoteStore for testing
type MockNoteStore struct {
	CreateIfAbsentFn func(ctx context.Context, note *domain.Note) (bool, error)
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	ListFn           func(ctx context.Context, page store.Page) ([]*domain.Note, error)
	UpdateFn         func(ctx context.Context, note *domain.Note) error
	DeleteFn         func(ctx context.Context, id uuid.UUID) error

	mu    sync.Mutex
	notes map[uuid.UUID]*domain.Note
}

var _ store.NoteStore = (*MockNoteStore)(nil)

// NewMockNoteStore creates an empty mock note store
func NewMockNoteStore() *MockNoteStore {
	return &MockNoteStore{notes: make(map[uuid.UUID]*domain.Note)}
}

// CreateIfAbsent implements the NoteStore interface
func (m *MockNoteStore) CreateIfAbsent(ctx context.Context, note *domain.Note) (bool, error) {
	if m.CreateIfAbsentFn != nil {
		return m.CreateIfAbsentFn(ctx, note)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notes {
		if n.IdempotencyKey == note.IdempotencyKey {
			return false, nil
		}
	}
	stored := *note
	m.notes[note.ID] = &stored
	return true, nil
}

// GetByID implements the NoteStore interface
func (m *MockNoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, store.ErrNoteNotFound
	}
	out := *n
	return &out, nil
}

// List implements the NoteStore interface
func (m *MockNoteStore) List(ctx context.Context, page store.Page) ([]*domain.Note, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page)
	}
	page = page.Normalize()

	m.mu.Lock()
	all := make([]*domain.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out := *n
		all = append(all, &out)
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page), nil
}

// Update implements the NoteStore interface
func (m *MockNoteStore) Update(ctx context.Context, note *domain.Note) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, note)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[note.ID]; !ok {
		return store.ErrNoteNotFound
	}
	stored := *note
	m.notes[note.ID] = &stored
	return nil
}

// Delete implements the NoteStore interface
func (m *MockNoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return store.ErrNoteNotFound
	}
	delete(m.notes, id)
	return nil
}

// Len reports how many notes are stored.
func (m *MockNoteStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

func paginate[T any](all []T, page store.Page) []T {
	if page.Offset >= len(all) {
		return []T{}
	}
	end := page.Offset + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Offset:end]
}
