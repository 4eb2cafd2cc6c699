package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
)

// TaskStore defines the interface for task persistence and search.
// Returned tasks carry their project reference, creator and assignee.
type TaskStore interface {
	// Create saves a new task.
	// Returns ErrInvalidEntity if the project, creator or assignee does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetByIDForUpdate is GetByID that also locks the task row until the
	// surrounding transaction ends. It must be called through WithTx.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update replaces title, description, status, priority, assignee and due date.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateStatus changes only the status.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// Delete removes the task together with its notes' task link and attachments rows.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// QueryAccessible returns one page of the tasks userID can read
	// (creator, assignee or project owner) that match query, plus the
	// total number of matches.
	QueryAccessible(ctx context.Context, userID uuid.UUID, query domain.TaskQuery) ([]*domain.Task, int64, error)

	// CountAccessibleByStatus aggregates the tasks userID can read by status.
	CountAccessibleByStatus(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error)

	// CountParticipatingByStatus aggregates the tasks userID created or is assigned to.
	CountParticipatingByStatus(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
