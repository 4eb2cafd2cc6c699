package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/store"
)

const attachmentSelect = `
	SELECT a.id, a.task_id, a.original_filename, a.stored_filename, a.file_path, a.file_size,
	       a.content_type, a.uploaded_at,
	       u.id, u.first_name, u.last_name, u.email, u.role
	FROM task_attachments a
	JOIN users u ON u.id = a.uploaded_by`

// PostgresAttachmentStore implements store.AttachmentStore on PostgreSQL.
type PostgresAttachmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AttachmentStore = (*PostgresAttachmentStore)(nil)

// NewPostgresAttachmentStore creates an attachment metadata store.
func NewPostgresAttachmentStore(db store.DBTX, logger *slog.Logger) *PostgresAttachmentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAttachmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "attachment_store")),
	}
}

// WithTx implements store.AttachmentStore.WithTx.
func (s *PostgresAttachmentStore) WithTx(tx *sql.Tx) store.AttachmentStore {
	return &PostgresAttachmentStore{db: tx, logger: s.logger}
}

// Create implements store.AttachmentStore.Create.
func (s *PostgresAttachmentStore) Create(ctx context.Context, a *domain.TaskAttachment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_attachments (id, task_id, original_filename, stored_filename, file_path,
		                              file_size, content_type, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.TaskID, a.OriginalFilename, a.StoredFilename, a.FilePath,
		a.FileSize, a.ContentType, a.UploadedBy.ID, a.UploadedAt,
	)
	if err != nil {
		log.Error("failed to create attachment",
			slog.String("error", err.Error()),
			slog.String("attachment_id", a.ID.String()),
			slog.String("task_id", a.TaskID.String()))
		return MapError(err)
	}

	log.Info("attachment created",
		slog.String("attachment_id", a.ID.String()),
		slog.String("task_id", a.TaskID.String()),
		slog.Int64("size", a.FileSize))
	return nil
}

// GetByID implements store.AttachmentStore.GetByID.
func (s *PostgresAttachmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskAttachment, error) {
	return s.get(ctx, attachmentSelect+` WHERE a.id = $1`, id)
}

// GetByIDForUpdate implements store.AttachmentStore.GetByIDForUpdate.
func (s *PostgresAttachmentStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.TaskAttachment, error) {
	return s.get(ctx, attachmentSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id)
}

func (s *PostgresAttachmentStore) get(ctx context.Context, query string, id uuid.UUID) (*domain.TaskAttachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		mapped := mapEntityError(err, store.ErrAttachmentNotFound)
		if !errors.Is(mapped, store.ErrAttachmentNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load attachment",
				slog.String("error", err.Error()),
				slog.String("attachment_id", id.String()))
		}
		return nil, mapped
	}
	return a, nil
}

// ListByTask implements store.AttachmentStore.ListByTask.
func (s *PostgresAttachmentStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskAttachment, error) {
	return s.list(ctx, attachmentSelect+` WHERE a.task_id = $1 ORDER BY a.uploaded_at DESC, a.id DESC`, taskID)
}

// ListByProject implements store.AttachmentStore.ListByProject.
func (s *PostgresAttachmentStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.TaskAttachment, error) {
	return s.list(ctx,
		attachmentSelect+` WHERE a.task_id IN (SELECT id FROM tasks WHERE project_id = $1) ORDER BY a.uploaded_at DESC, a.id DESC`,
		projectID,
	)
}

func (s *PostgresAttachmentStore) list(ctx context.Context, query string, id uuid.UUID) ([]*domain.TaskAttachment, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list attachments",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	attachments := []*domain.TaskAttachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, MapError(err)
		}
		attachments = append(attachments, a)
	}
	return attachments, MapError(rows.Err())
}

// Delete implements store.AttachmentStore.Delete.
func (s *PostgresAttachmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM task_attachments WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete attachment",
			slog.String("error", err.Error()),
			slog.String("attachment_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrAttachmentNotFound)
}

// StatsForTask implements store.AttachmentStore.StatsForTask.
func (s *PostgresAttachmentStore) StatsForTask(ctx context.Context, taskID uuid.UUID) (domain.AttachmentStats, error) {
	var stats domain.AttachmentStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM task_attachments WHERE task_id = $1`,
		taskID,
	).Scan(&stats.Count, &stats.TotalSize)
	if err != nil {
		return domain.AttachmentStats{}, MapError(err)
	}
	return stats, nil
}

func scanAttachment(row rowScanner) (*domain.TaskAttachment, error) {
	var a domain.TaskAttachment
	var uploader summaryDest

	dest := []any{
		&a.ID, &a.TaskID, &a.OriginalFilename, &a.StoredFilename, &a.FilePath, &a.FileSize,
		&a.ContentType, &a.UploadedAt,
	}
	if err := row.Scan(append(dest, uploader.targets()...)...); err != nil {
		return nil, err
	}
	a.UploadedBy = uploader.summary()
	return &a, nil
}
