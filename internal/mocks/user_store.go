package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/store"
)

// MockUserStore implements store.UserStore on a Memory. The Fn fields
// override the in-memory behavior when set.
type MockUserStore struct {
	Mem *Memory

	CreateFn         func(ctx context.Context, user *domain.User) error
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailFn     func(ctx context.Context, email string) (*domain.User, error)
	UpdatePasswordFn func(ctx context.Context, id uuid.UUID, password string) error
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a user store on mem.
func NewMockUserStore(mem *Memory) *MockUserStore {
	return &MockUserStore{Mem: mem}
}

// Create implements store.UserStore.Create. The password is "hashed" with FakeHash.
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	if m.Mem.userByEmail(user.Email) != nil {
		return store.ErrEmailExists
	}

	user.HashedPassword = FakeHash(user.Password)
	user.Password = ""
	cp := *user
	m.Mem.Users[user.ID] = &cp
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	user, ok := m.Mem.Users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// GetByEmail implements store.UserStore.GetByEmail.
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	user := m.Mem.userByEmail(email)
	if user == nil {
		return nil, store.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// UpdatePassword implements store.UserStore.UpdatePassword.
func (m *MockUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	if m.UpdatePasswordFn != nil {
		return m.UpdatePasswordFn(ctx, id, password)
	}
	if msg := domain.PasswordProblem(password); msg != "" {
		return domain.NewValidationError("password", msg, domain.ErrValidation)
	}

	m.Mem.mu.Lock()
	defer m.Mem.mu.Unlock()

	user, ok := m.Mem.Users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.HashedPassword = FakeHash(password)
	return nil
}

// WithTx implements store.UserStore.WithTx. The in-memory store has no
// transactions, so it returns itself.
func (m *MockUserStore) WithTx(_ *sql.Tx) store.UserStore {
	return m
}
