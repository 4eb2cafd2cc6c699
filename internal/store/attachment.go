package store

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
)

// AttachmentStore defines the interface for attachment metadata persistence.
type AttachmentStore interface {
	// Create saves attachment metadata.
	Create(ctx context.Context, attachment *domain.TaskAttachment) error

	// GetByID retrieves attachment metadata.
	// Returns ErrAttachmentNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskAttachment, error)

	// GetByIDForUpdate is GetByID that also locks the row. It must be called through WithTx.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TaskAttachment, error)

	// ListByTask returns the attachments of a task, newest first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskAttachment, error)

	// ListByProject returns the attachments of every task in a project.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.TaskAttachment, error)

	// Delete removes attachment metadata.
	// Returns ErrAttachmentNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// StatsForTask counts the attachments of a task and sums their sizes.
	StatsForTask(ctx context.Context, taskID uuid.UUID) (domain.AttachmentStats, error)

	// WithTx returns a new AttachmentStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AttachmentStore
}

// ResetTokenStore keeps hashed password reset tokens until they expire.
type ResetTokenStore interface {
	// Save stores tokenHash for userID, valid for ttl.
	Save(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error

	// Consume returns the user of tokenHash and invalidates it.
	// Returns ErrResetTokenNotFound if it is unknown, expired or already used.
	Consume(ctx context.Context, tokenHash string) (uuid.UUID, error)
}

// FileStore holds attachment blobs by stored filename.
type FileStore interface {
	// Save writes r under name and returns the path and number of bytes written.
	// Returns ErrFileTooLarge if r yields more than limit bytes.
	Save(ctx context.Context, name string, r io.Reader, limit int64) (string, int64, error)

	// Open returns a reader for the blob stored under name.
	// Returns ErrFileNotFound if it does not exist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes the blob stored under name. Missing blobs are not an error.
	Delete(ctx context.Context, name string) error
}
