package mocks

import (
	"context"
	"database/sql"
	"slices"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/store"
)

// MockNoteStore implements store.NoteStore on a Memory.
// Notes are kept in insertion order; later inserts count as newer.
type MockNoteStore struct {
	Mem *Memory

	CreateFn func(ctx context.Context, note *domain.TaskNote) error
}

var _ store.NoteStore = (*MockNoteStore)(nil)

// NewMockNoteStore creates a note store on mem.
func NewMockNoteStore(mem *Memory) *MockNoteStore {
	return &MockNoteStore{Mem: mem}
}

// Create implements store.NoteStore.Create.
func (m *MockNoteStore) Create(ctx context.Context, note *domain.TaskNote) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, note)
	}
	if err := note.Validate(); err != nil {
		return err
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	m.Mem.Notes = append(m.Mem.Notes, cloneNote(note))
	return nil
}

// LatestForTask implements store.NoteStore.LatestForTask.
func (m *MockNoteStore) LatestForTask(_ context.Context, userID, taskID uuid.UUID) (*domain.TaskNote, error) {
	notes := m.newestFirst(func(n *domain.TaskNote) bool {
		return n.UserID == userID && n.TaskID != nil && *n.TaskID == taskID
	})
	if len(notes) == 0 {
		return nil, store.ErrNoteNotFound
	}
	return notes[0], nil
}

// ListByUser implements store.NoteStore.ListByUser.
func (m *MockNoteStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.TaskNote, error) {
	return m.newestFirst(func(n *domain.TaskNote) bool { return n.UserID == userID }), nil
}

// ListByUserAndTag implements store.NoteStore.ListByUserAndTag.
func (m *MockNoteStore) ListByUserAndTag(_ context.Context, userID uuid.UUID, tag string) ([]*domain.TaskNote, error) {
	return m.newestFirst(func(n *domain.TaskNote) bool { return n.UserID == userID && n.HasTag(tag) }), nil
}

// DistinctTags implements store.NoteStore.DistinctTags.
func (m *MockNoteStore) DistinctTags(_ context.Context, userID uuid.UUID) ([]string, error) {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	tags := []string{}
	for _, n := range m.Mem.Notes {
		if n.UserID != userID {
			continue
		}
		for _, tag := range n.ReminderTags {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	slices.Sort(tags)
	return tags, nil
}

// ExistsForTask implements store.NoteStore.ExistsForTask.
func (m *MockNoteStore) ExistsForTask(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	_, err := m.LatestForTask(ctx, userID, taskID)
	return err == nil, nil
}

// DeleteForTask implements store.NoteStore.DeleteForTask.
func (m *MockNoteStore) DeleteForTask(_ context.Context, userID, taskID uuid.UUID) error {
	return m.remove(func(n *domain.TaskNote) bool {
		return n.UserID == userID && n.TaskID != nil && *n.TaskID == taskID
	})
}

// DeleteByID implements store.NoteStore.DeleteByID.
func (m *MockNoteStore) DeleteByID(_ context.Context, userID, noteID uuid.UUID) error {
	return m.remove(func(n *domain.TaskNote) bool { return n.UserID == userID && n.ID == noteID })
}

// WithTx implements store.NoteStore.WithTx.
func (m *MockNoteStore) WithTx(_ *sql.Tx) store.NoteStore {
	return m
}

func (m *MockNoteStore) newestFirst(match func(*domain.TaskNote) bool) []*domain.TaskNote {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	notes := []*domain.TaskNote{}
	for i := len(m.Mem.Notes) - 1; i >= 0; i-- {
		n := m.Mem.Notes[i]
		if !match(n) {
			continue
		}
		cp := cloneNote(n)
		if n.TaskID != nil {
			if t, ok := m.Mem.Tasks[*n.TaskID]; ok {
				cp.TaskTitle = t.Title
			}
		}
		notes = append(notes, cp)
	}
	return notes
}

func (m *MockNoteStore) remove(match func(*domain.TaskNote) bool) error {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	kept := make([]*domain.TaskNote, 0, len(m.Mem.Notes))
	for _, n := range m.Mem.Notes {
		if !match(n) {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(m.Mem.Notes) {
		return store.ErrNoteNotFound
	}
	m.Mem.Notes = kept
	return nil
}
