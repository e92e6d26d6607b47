// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"lineagehub/internal/domain"
	"lineagehub/internal/storage"
)

// === File Repository Mock ===

// MockFileRepo implements domain.FileRepository for testing.
type MockFileRepo struct {
	CreateFn             func(ctx context.Context, f *domain.FileRecord) error
	GetFn                func(ctx context.Context, owner, id string) (*domain.FileRecord, error)
	ListFn               func(ctx context.Context, owner string) ([]domain.FileRecord, error)
	SetStatusFn          func(ctx context.Context, id, status string) error
	SoftDeleteFn         func(ctx context.Context, owner, id string) error
	PurgeDeletedBeforeFn func(ctx context.Context, cutoff time.Time) ([]domain.FileRecord, error)
}

func (m *MockFileRepo) Create(ctx context.Context, f *domain.FileRecord) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, f)
	}
	panic("unexpected call to MockFileRepo.Create")
}

func (m *MockFileRepo) Get(ctx context.Context, owner, id string) (*domain.FileRecord, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, owner, id)
	}
	panic("unexpected call to MockFileRepo.Get")
}

func (m *MockFileRepo) List(ctx context.Context, owner string) ([]domain.FileRecord, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, owner)
	}
	panic("unexpected call to MockFileRepo.List")
}

func (m *MockFileRepo) SetStatus(ctx context.Context, id, status string) error {
	if m.SetStatusFn != nil {
		return m.SetStatusFn(ctx, id, status)
	}
	panic("unexpected call to MockFileRepo.SetStatus")
}

func (m *MockFileRepo) SoftDelete(ctx context.Context, owner, id string) error {
	if m.SoftDeleteFn != nil {
		return m.SoftDeleteFn(ctx, owner, id)
	}
	panic("unexpected call to MockFileRepo.SoftDelete")
}

func (m *MockFileRepo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) ([]domain.FileRecord, error) {
	if m.PurgeDeletedBeforeFn != nil {
		return m.PurgeDeletedBeforeFn(ctx, cutoff)
	}
	panic("unexpected call to MockFileRepo.PurgeDeletedBefore")
}

var _ domain.FileRepository = (*MockFileRepo)(nil)

// === Fact Repository Mock ===

// MockFactRepo implements domain.FactRepository for testing.
type MockFactRepo struct {
	ReplaceFn func(ctx context.Context, fileID string, nodes []domain.NodeFact, edges []domain.EdgeFact) error
	GetFn     func(ctx context.Context, fileID string) ([]domain.NodeFact, []domain.EdgeFact, error)
	DeleteFn  func(ctx context.Context, fileID string) error
}

func (m *MockFactRepo) Replace(ctx context.Context, fileID string, nodes []domain.NodeFact, edges []domain.EdgeFact) error {
	if m.ReplaceFn != nil {
		return m.ReplaceFn(ctx, fileID, nodes, edges)
	}
	panic("unexpected call to MockFactRepo.Replace")
}

func (m *MockFactRepo) Get(ctx context.Context, fileID string) ([]domain.NodeFact, []domain.EdgeFact, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, fileID)
	}
	panic("unexpected call to MockFactRepo.Get")
}

func (m *MockFactRepo) Delete(ctx context.Context, fileID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, fileID)
	}
	panic("unexpected call to MockFactRepo.Delete")
}

var _ domain.FactRepository = (*MockFactRepo)(nil)

// === Object Store Mock ===

// MemoryStore is an in-memory storage.ObjectStore for tests. Safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutErr    error
	DeleteErr error
	Deleted   []string // keys deleted, in order, for assertions
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ storage.ObjectStore = (*MemoryStore)(nil)
