package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityErrorsWrapGenericKinds(t *testing.T) {
	t.Parallel()

	notFound := []error{
		ErrUserNotFound,
		ErrProjectNotFound,
		ErrTaskNotFound,
		ErrNoteNotFound,
		ErrAttachmentNotFound,
		ErrResetTokenNotFound,
		ErrFileNotFound,
	}
	for _, err := range notFound {
		wrapped := fmt.Errorf("failed to load: %w", err)
		assert.True(t, IsNotFoundError(wrapped), err.Error())
		assert.False(t, IsDuplicateError(wrapped), err.Error())
	}

	for _, err := range []error{ErrEmailExists, ErrAlreadyMember} {
		assert.True(t, IsDuplicateError(err), err.Error())
		assert.False(t, IsNotFoundError(err), err.Error())
	}

	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(errors.New("boom")))
	assert.False(t, errors.Is(ErrTaskNotFound, ErrProjectNotFound))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewStoreError("task", "query", "failed to count tasks", cause)

	assert.Equal(t, "query operation on task failed: failed to count tasks: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("note", "delete", "nothing to delete", nil)
	assert.Equal(t, "delete operation on note failed: nothing to delete", bare.Error())

	var target *StoreError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &target))
	assert.Equal(t, "task", target.Entity)
}
