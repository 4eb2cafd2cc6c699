package mocks

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/store"
)

// MockTaskStore implements store.TaskStore on a Memory. QueryAccessible
// follows the SQL query engine: access predicate, filters, ordering with an
// id tie-breaker, then paging.
type MockTaskStore struct {
	Mem *Memory

	CreateFn          func(ctx context.Context, task *domain.Task) error
	QueryAccessibleFn func(ctx context.Context, userID uuid.UUID, query domain.TaskQuery) ([]*domain.Task, int64, error)
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a task store on mem.
func NewMockTaskStore(mem *Memory) *MockTaskStore {
	return &MockTaskStore{Mem: mem}
}

// Create implements store.TaskStore.Create.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	if _, ok := m.Mem.Projects[task.Project.ID]; !ok {
		return store.ErrInvalidEntity
	}
	m.Mem.Tasks[task.ID] = cloneTask(task)
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (m *MockTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	t, ok := m.Mem.Tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

// GetByIDForUpdate implements store.TaskStore.GetByIDForUpdate.
func (m *MockTaskStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return m.GetByID(ctx, id)
}

// Update implements store.TaskStore.Update. Project and creator are immutable.
func (m *MockTaskStore) Update(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	t, ok := m.Mem.Tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	updated := cloneTask(task)
	updated.Project = t.Project
	updated.Creator = t.Creator
	updated.CreatedAt = t.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	m.Mem.Tasks[task.ID] = updated
	task.UpdatedAt = updated.UpdatedAt
	return nil
}

// UpdateStatus implements store.TaskStore.UpdateStatus.
func (m *MockTaskStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TaskStatus) error {
	if !status.IsValid() {
		return domain.NewValidationError("status", "is not a known task status", domain.ErrInvalidTaskStatus)
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	t, ok := m.Mem.Tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete implements store.TaskStore.Delete.
func (m *MockTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	if _, ok := m.Mem.Tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	m.Mem.deleteTasks(func(t *domain.Task) bool { return t.ID == id })
	return nil
}

// QueryAccessible implements store.TaskStore.QueryAccessible.
func (m *MockTaskStore) QueryAccessible(
	ctx context.Context,
	userID uuid.UUID,
	query domain.TaskQuery,
) ([]*domain.Task, int64, error) {
	if m.QueryAccessibleFn != nil {
		return m.QueryAccessibleFn(ctx, userID, query)
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	var matched []*domain.Task
	for _, t := range m.Mem.Tasks {
		if domain.HasTaskAccess(t, userID) && matchesFilter(t, query.Filter) {
			matched = append(matched, cloneTask(t))
		}
	}
	sortTasks(matched, query.Sort)

	total := int64(len(matched))
	start := min(query.Page.Offset(), len(matched))
	end := min(start+query.Page.Size, len(matched))
	return matched[start:end], total, nil
}

func matchesFilter(t *domain.Task, f domain.TaskFilter) bool {
	if f.Text != "" {
		text := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(t.Title), text) &&
			!strings.Contains(strings.ToLower(t.Description), text) {
			return false
		}
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.ProjectID != nil && t.Project.ID != *f.ProjectID {
		return false
	}
	return true
}

// CountAccessibleByStatus implements store.TaskStore.CountAccessibleByStatus.
func (m *MockTaskStore) CountAccessibleByStatus(_ context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	return m.count(func(t *domain.Task) bool { return domain.HasTaskAccess(t, userID) }), nil
}

// CountParticipatingByStatus implements store.TaskStore.CountParticipatingByStatus.
func (m *MockTaskStore) CountParticipatingByStatus(_ context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	return m.count(func(t *domain.Task) bool {
		return t.Creator.ID == userID || (t.Assignee != nil && t.Assignee.ID == userID)
	}), nil
}

func (m *MockTaskStore) count(match func(*domain.Task) bool) domain.TaskStats {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	var stats domain.TaskStats
	for _, t := range m.Mem.Tasks {
		if !match(t) {
			continue
		}
		stats.Total++
		switch t.Status {
		case domain.TaskStatusTodo:
			stats.Todo++
		case domain.TaskStatusInProgress:
			stats.InProgress++
		case domain.TaskStatusCompleted:
			stats.Completed++
		case domain.TaskStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// WithTx implements store.TaskStore.WithTx.
func (m *MockTaskStore) WithTx(_ *sql.Tx) store.TaskStore {
	return m
}
