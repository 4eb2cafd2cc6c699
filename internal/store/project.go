package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
)

// ProjectStore defines the interface for project and membership persistence.
// Returned projects always carry their owner and member summaries.
type ProjectStore interface {
	// Create saves a new project.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project with owner and members.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// GetByIDForUpdate is GetByID that also locks the project row until the
	// surrounding transaction ends. It must be called through WithTx.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// ListForUser returns the projects the user owns or is a member of, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)

	// Update stores name, description, status and deadline.
	// Returns ErrProjectNotFound if the project does not exist.
	Update(ctx context.Context, project *domain.Project) error

	// Delete removes the project, its memberships and its tasks.
	// Returns ErrProjectNotFound if the project does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddMember adds userID to the member set.
	// Returns ErrAlreadyMember if the user is already a member.
	AddMember(ctx context.Context, projectID, userID uuid.UUID) error

	// RemoveMember removes userID from the member set.
	// Returns ErrUserNotFound if the user is not a member.
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error

	// CountForUser counts projects the user owns or is a member of.
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// TaskCounts aggregates the tasks of one project.
	TaskCounts(ctx context.Context, projectID uuid.UUID) (domain.ProjectTaskCounts, error)

	// WithTx returns a new ProjectStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProjectStore
}
