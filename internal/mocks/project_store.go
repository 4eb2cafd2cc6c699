package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/store"
)

// MockProjectStore implements store.ProjectStore on a Memory.
type MockProjectStore struct {
	Mem *Memory

	CreateFn func(ctx context.Context, project *domain.Project) error
	DeleteFn func(ctx context.Context, id uuid.UUID) error
}

var _ store.ProjectStore = (*MockProjectStore)(nil)

// NewMockProjectStore creates a project store on mem.
func NewMockProjectStore(mem *Memory) *MockProjectStore {
	return &MockProjectStore{Mem: mem}
}

// Create implements store.ProjectStore.Create.
func (m *MockProjectStore) Create(ctx context.Context, project *domain.Project) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, project)
	}
	if err := project.Validate(); err != nil {
		return err
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	if _, ok := m.Mem.Users[project.Owner.ID]; !ok {
		return store.ErrInvalidEntity
	}
	m.Mem.Projects[project.ID] = cloneProject(project)
	return nil
}

// GetByID implements store.ProjectStore.GetByID.
func (m *MockProjectStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	p, ok := m.Mem.Projects[id]
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

// GetByIDForUpdate implements store.ProjectStore.GetByIDForUpdate.
func (m *MockProjectStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return m.GetByID(ctx, id)
}

// ListForUser implements store.ProjectStore.ListForUser.
func (m *MockProjectStore) ListForUser(_ context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	projects := []*domain.Project{}
	for _, p := range m.Mem.Projects {
		if domain.HasProjectAccess(p, userID) {
			projects = append(projects, cloneProject(p))
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		if c := projects[i].CreatedAt.Compare(projects[j].CreatedAt); c != 0 {
			return c > 0
		}
		return strings.Compare(projects[i].ID.String(), projects[j].ID.String()) > 0
	})
	return projects, nil
}

// Update implements store.ProjectStore.Update. Members are not touched.
func (m *MockProjectStore) Update(_ context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	p, ok := m.Mem.Projects[project.ID]
	if !ok {
		return store.ErrProjectNotFound
	}
	p.Name = project.Name
	p.Description = project.Description
	p.Status = project.Status
	p.Deadline = project.Deadline
	p.UpdatedAt = time.Now().UTC()
	project.UpdatedAt = p.UpdatedAt
	return nil
}

// Delete implements store.ProjectStore.Delete, cascading to tasks.
func (m *MockProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	if _, ok := m.Mem.Projects[id]; !ok {
		return store.ErrProjectNotFound
	}
	delete(m.Mem.Projects, id)
	m.Mem.deleteTasks(func(t *domain.Task) bool { return t.Project.ID == id })
	return nil
}

// AddMember implements store.ProjectStore.AddMember.
func (m *MockProjectStore) AddMember(_ context.Context, projectID, userID uuid.UUID) error {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	p, ok := m.Mem.Projects[projectID]
	if !ok {
		return store.ErrProjectNotFound
	}
	user, ok := m.Mem.Users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	if p.IsMember(userID) {
		return store.ErrAlreadyMember
	}
	p.Members = append(p.Members, user.Summary())
	return nil
}

// RemoveMember implements store.ProjectStore.RemoveMember.
func (m *MockProjectStore) RemoveMember(_ context.Context, projectID, userID uuid.UUID) error {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	p, ok := m.Mem.Projects[projectID]
	if !ok {
		return store.ErrProjectNotFound
	}
	for i, member := range p.Members {
		if member.ID == userID {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			return nil
		}
	}
	return store.ErrUserNotFound
}

// CountForUser implements store.ProjectStore.CountForUser.
func (m *MockProjectStore) CountForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	var n int64
	for _, p := range m.Mem.Projects {
		if domain.HasProjectAccess(p, userID) {
			n++
		}
	}
	return n, nil
}

// TaskCounts implements store.ProjectStore.TaskCounts.
func (m *MockProjectStore) TaskCounts(_ context.Context, projectID uuid.UUID) (domain.ProjectTaskCounts, error) {
	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	var counts domain.ProjectTaskCounts
	for _, t := range m.Mem.Tasks {
		if t.Project.ID != projectID {
			continue
		}
		counts.Total++
		switch t.Status {
		case domain.TaskStatusCompleted:
			counts.Completed++
		case domain.TaskStatusInProgress:
			counts.InProgress++
		}
	}
	return counts, nil
}

// WithTx implements store.ProjectStore.WithTx.
func (m *MockProjectStore) WithTx(_ *sql.Tx) store.ProjectStore {
	return m
}
