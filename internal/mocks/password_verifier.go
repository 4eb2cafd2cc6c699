package mocks

import (
	"errors"

	"github.com/tasksphere/shareme-api/internal/service/auth"
)

// ErrPasswordMismatch is returned by MockPasswordVerifier on a mismatch.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordVerifier implements auth.PasswordVerifier for testing.
// Without CompareFn it accepts a password whose FakeHash equals the stored hash.
type MockPasswordVerifier struct {
	CompareFn func(hashedPassword, password string) error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var _ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)

// Compare implements auth.PasswordVerifier.
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if FakeHash(password) != hashedPassword {
		return ErrPasswordMismatch
	}
	return nil
}
