package mocks

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/store"
)

// MockAttachmentStore implements store.AttachmentStore on a Memory.
type MockAttachmentStore struct {
	Mem *Memory

	CreateFn func(ctx context.Context, attachment *domain.TaskAttachment) error
}

var _ store.AttachmentStore = (*MockAttachmentStore)(nil)

// NewMockAttachmentStore creates an attachment store on mem.
func NewMockAttachmentStore(mem *Memory) *MockAttachmentStore {
	return &MockAttachmentStore{Mem: mem}
}

// Create implements store.AttachmentStore.Create.
func (m *MockAttachmentStore) Create(ctx context.Context, a *domain.TaskAttachment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	if _, ok := m.Mem.Tasks[a.TaskID]; !ok {
		return store.ErrInvalidEntity
	}
	cp := *a
	m.Mem.Attachments[a.ID] = &cp
	return nil
}

// GetByID implements store.AttachmentStore.GetByID.
func (m *MockAttachmentStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TaskAttachment, error) {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	a, ok := m.Mem.Attachments[id]
	if !ok {
		return nil, store.ErrAttachmentNotFound
	}
	cp := *a
	return &cp, nil
}

// GetByIDForUpdate implements store.AttachmentStore.GetByIDForUpdate.
func (m *MockAttachmentStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TaskAttachment, error) {
	return m.GetByID(ctx, id)
}

// ListByTask implements store.AttachmentStore.ListByTask.
func (m *MockAttachmentStore) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.TaskAttachment, error) {
	return m.list(func(a *domain.TaskAttachment) bool { return a.TaskID == taskID }), nil
}

// ListByProject implements store.AttachmentStore.ListByProject.
func (m *MockAttachmentStore) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.TaskAttachment, error) {
	return m.list(func(a *domain.TaskAttachment) bool {
		t, ok := m.Mem.Tasks[a.TaskID]
		return ok && t.Project.ID == projectID
	}), nil
}

// Delete implements store.AttachmentStore.Delete.
func (m *MockAttachmentStore) Delete(_ context.Context, id uuid.UUID) error {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	if _, ok := m.Mem.Attachments[id]; !ok {
		return store.ErrAttachmentNotFound
	}
	delete(m.Mem.Attachments, id)
	return nil
}

// StatsForTask implements store.AttachmentStore.StatsForTask.
func (m *MockAttachmentStore) StatsForTask(_ context.Context, taskID uuid.UUID) (domain.AttachmentStats, error) {
	var stats domain.AttachmentStats
	for _, a := range m.list(func(a *domain.TaskAttachment) bool { return a.TaskID == taskID }) {
		stats.Count++
		stats.TotalSize += a.FileSize
	}
	return stats, nil
}

// WithTx implements store.AttachmentStore.WithTx.
func (m *MockAttachmentStore) WithTx(_ *sql.Tx) store.AttachmentStore {
	return m
}

// list runs match with the memory lock held.
func (m *MockAttachmentStore) list(match func(*domain.TaskAttachment) bool) []*domain.TaskAttachment {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	out := []*domain.TaskAttachment{}
	for _, a := range m.Mem.Attachments {
		if match(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].UploadedAt.Compare(out[j].UploadedAt); c != 0 {
			return c > 0
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

// MockFileStore implements store.FileStore in memory.
type MockFileStore struct {
	mu    sync.Mutex
	Blobs map[string][]byte

	SaveFn func(ctx context.Context, name string, r io.Reader, limit int64) (string, int64, error)
	OpenFn func(ctx context.Context, name string) (io.ReadCloser, error)
}

var _ store.FileStore = (*MockFileStore)(nil)

// NewMockFileStore creates an empty file store.
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{Blobs: make(map[string][]byte)}
}

// Save implements store.FileStore.Save.
func (m *MockFileStore) Save(ctx context.Context, name string, r io.Reader, limit int64) (string, int64, error) {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, name, r, limit)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", 0, err
	}
	if int64(len(data)) > limit {
		return "", 0, store.ErrFileTooLarge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Blobs[name]; exists {
		return "", 0, fmt.Errorf("file %s already exists", name)
	}
	m.Blobs[name] = data
	return "mem://" + name, int64(len(data)), nil
}

// Open implements store.FileStore.Open.
func (m *MockFileStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if m.OpenFn != nil {
		return m.OpenFn(ctx, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.Blobs[name]
	if !ok {
		return nil, store.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete implements store.FileStore.Delete.
func (m *MockFileStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Blobs[name]; !ok {
		return store.ErrFileNotFound
	}
	delete(m.Blobs, name)
	return nil
}

// Count returns the number of stored blobs.
func (m *MockFileStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Blobs)
}

// ErrFailingReader is returned by FailingReader.
var ErrFailingReader = errors.New("read failed")

// FailingReader is an io.Reader that always fails.
type FailingReader struct{}

// Read implements io.Reader.
func (FailingReader) Read([]byte) (int, error) {
	return 0, ErrFailingReader
}
