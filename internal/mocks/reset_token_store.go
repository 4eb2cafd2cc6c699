package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/store"
)

// ResetEntry is one stored reset token.
type ResetEntry struct {
	UserID uuid.UUID
	TTL    time.Duration
}

// MockResetTokenStore implements store.ResetTokenStore in memory.
// Entries never expire on their own; tests delete them to simulate expiry.
type MockResetTokenStore struct {
	mu      sync.Mutex
	Entries map[string]ResetEntry

	SaveErr error
}

var _ store.ResetTokenStore = (*MockResetTokenStore)(nil)

// NewMockResetTokenStore creates an empty reset token store.
func NewMockResetTokenStore() *MockResetTokenStore {
	return &MockResetTokenStore{Entries: make(map[string]ResetEntry)}
}

// Save implements store.ResetTokenStore.Save.
func (m *MockResetTokenStore) Save(_ context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[tokenHash] = ResetEntry{UserID: userID, TTL: ttl}
	return nil
}

// Consume implements store.ResetTokenStore.Consume.
func (m *MockResetTokenStore) Consume(_ context.Context, tokenHash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.Entries[tokenHash]
	if !ok {
		return uuid.Nil, store.ErrResetTokenNotFound
	}
	delete(m.Entries, tokenHash)
	return entry.UserID, nil
}

// Expire drops every stored token.
func (m *MockResetTokenStore) Expire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.Entries)
}
