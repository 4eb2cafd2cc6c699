package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
)

// NoteStore defines the interface for personal task note persistence.
// Every query is scoped to one owner.
type NoteStore interface {
	// Create inserts a new note. It never merges with existing notes.
	Create(ctx context.Context, note *domain.TaskNote) error

	// LatestForTask returns the most recently created note of userID for taskID.
	// Returns ErrNoteNotFound if there is none.
	LatestForTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.TaskNote, error)

	// ListByUser returns all notes of userID, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskNote, error)

	// ListByUserAndTag returns the notes of userID carrying exactly tag.
	ListByUserAndTag(ctx context.Context, userID uuid.UUID, tag string) ([]*domain.TaskNote, error)

	// DistinctTags returns the sorted set of tags used by userID.
	DistinctTags(ctx context.Context, userID uuid.UUID) ([]string, error)

	// ExistsForTask reports whether userID has at least one note for taskID.
	ExistsForTask(ctx context.Context, userID, taskID uuid.UUID) (bool, error)

	// DeleteForTask removes every note of userID for taskID.
	// Returns ErrNoteNotFound if there were none.
	DeleteForTask(ctx context.Context, userID, taskID uuid.UUID) error

	// DeleteByID removes a single note owned by userID.
	// Returns ErrNoteNotFound if it does not exist or belongs to someone else.
	DeleteByID(ctx context.Context, userID, noteID uuid.UUID) error

	// WithTx returns a new NoteStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NoteStore
}
