package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/store"
)

// Upload is one file of a multi-file upload request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// AttachmentService manages files attached to tasks.
type AttachmentService interface {
	// Upload stores every file and records its metadata. Either all files
	// are attached or none are.
	Upload(ctx context.Context, userID, taskID uuid.UUID, files []Upload) ([]*domain.TaskAttachment, error)

	// List returns the attachments of a task visible to userID, newest first.
	List(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.TaskAttachment, error)

	// Open returns the metadata and content of an attachment. The caller closes the reader.
	Open(ctx context.Context, userID, attachmentID uuid.UUID) (*domain.TaskAttachment, io.ReadCloser, error)

	// Delete removes an attachment. Allowed for the uploader, the task
	// creator and the assignee.
	Delete(ctx context.Context, userID, attachmentID uuid.UUID) error

	// Stats returns the count and total size of a task's attachments.
	Stats(ctx context.Context, userID, taskID uuid.UUID) (domain.AttachmentStats, error)
}

type attachmentServiceImpl struct {
	db          *sql.DB
	attachments store.AttachmentStore
	tasks       store.TaskStore
	users       store.UserStore
	files       store.FileStore
	logger      *slog.Logger
}

// NewAttachmentService creates an AttachmentService.
func NewAttachmentService(
	db *sql.DB,
	attachments store.AttachmentStore,
	tasks store.TaskStore,
	users store.UserStore,
	files store.FileStore,
	logger *slog.Logger,
) (AttachmentService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if attachments == nil {
		return nil, domain.NewValidationError("attachments", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if files == nil {
		return nil, domain.NewValidationError("files", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &attachmentServiceImpl{
		db:          db,
		attachments: attachments,
		tasks:       tasks,
		users:       users,
		files:       files,
		logger:      logger.With(slog.String("component", "attachment_service")),
	}, nil
}

// Upload implements AttachmentService.Upload.
//
// Blobs are written first, then every metadata row in one transaction.
// A failure at either step removes the blobs already written.
func (s *attachmentServiceImpl) Upload(
	ctx context.Context,
	userID, taskID uuid.UUID,
	files []Upload,
) ([]*domain.TaskAttachment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(files) == 0 {
		return nil, domain.NewValidationError("files", "at least one file is required", domain.ErrInvalidUpload)
	}

	if _, err := s.accessibleTask(ctx, userID, taskID, "upload attachment"); err != nil {
		return nil, err
	}
	uploader, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load uploader: %w", err)
	}

	for _, f := range files {
		if err := domain.ValidateUpload(f.Filename, f.Size); err != nil {
			return nil, err
		}
	}

	attachments := make([]*domain.TaskAttachment, 0, len(files))
	written := make([]string, 0, len(files))
	for _, f := range files {
		stored := domain.StoredFilenameFor(f.Filename)
		path, size, err := s.files.Save(ctx, stored, f.Content, domain.MaxAttachmentSize)
		if err != nil {
			removeBlobs(ctx, log, s.files, written)
			if errors.Is(err, store.ErrFileTooLarge) {
				return nil, domain.NewValidationError("file", "file exceeds the 50MB limit", domain.ErrInvalidUpload)
			}
			log.Error("failed to store attachment",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		written = append(written, stored)
		attachments = append(attachments,
			domain.NewTaskAttachment(taskID, uploader.Summary(), f.Filename, stored, path, f.ContentType, size))
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txAttachments := s.attachments.WithTx(tx)
		for _, a := range attachments {
			if err := txAttachments.Create(ctx, a); err != nil {
				return fmt.Errorf("failed to record attachment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		removeBlobs(ctx, log, s.files, written)
		return nil, err
	}

	log.Info("attachments uploaded",
		slog.String("task_id", taskID.String()),
		slog.Int("count", len(attachments)))
	return attachments, nil
}

// List implements AttachmentService.List.
func (s *attachmentServiceImpl) List(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.TaskAttachment, error) {
	if _, err := s.accessibleTask(ctx, userID, taskID, "view attachments"); err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

// Open implements AttachmentService.Open.
func (s *attachmentServiceImpl) Open(
	ctx context.Context,
	userID, attachmentID uuid.UUID,
) (*domain.TaskAttachment, io.ReadCloser, error) {
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load attachment: %w", err)
	}
	if _, err := s.accessibleTask(ctx, userID, attachment.TaskID, "download attachment"); err != nil {
		return nil, nil, err
	}

	content, err := s.files.Open(ctx, attachment.StoredFilename)
	if err != nil {
		if errors.Is(err, store.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("failed to open attachment: %w", err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to open attachment blob",
			slog.String("error", err.Error()),
			slog.String("attachment_id", attachmentID.String()))
		return nil, nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return attachment, content, nil
}

// Delete implements AttachmentService.Delete.
func (s *attachmentServiceImpl) Delete(ctx context.Context, userID, attachmentID uuid.UUID) error {
	var stored string
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		attachments := s.attachments.WithTx(tx)

		a, err := attachments.GetByIDForUpdate(ctx, attachmentID)
		if err != nil {
			return fmt.Errorf("failed to load attachment: %w", err)
		}
		task, err := s.tasks.WithTx(tx).GetByID(ctx, a.TaskID)
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}
		if !domain.CanDeleteAttachment(a, task, userID) {
			return denied("delete attachment")
		}

		if err := attachments.Delete(ctx, attachmentID); err != nil {
			return fmt.Errorf("failed to delete attachment: %w", err)
		}
		stored = a.StoredFilename
		return nil
	})
	if err != nil {
		return err
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	removeBlobs(ctx, log, s.files, []string{stored})
	log.Info("attachment deleted", slog.String("attachment_id", attachmentID.String()))
	return nil
}

// Stats implements AttachmentService.Stats.
func (s *attachmentServiceImpl) Stats(ctx context.Context, userID, taskID uuid.UUID) (domain.AttachmentStats, error) {
	if _, err := s.accessibleTask(ctx, userID, taskID, "view attachments"); err != nil {
		return domain.AttachmentStats{}, err
	}
	stats, err := s.attachments.StatsForTask(ctx, taskID)
	if err != nil {
		return domain.AttachmentStats{}, fmt.Errorf("failed to count attachments: %w", err)
	}
	return stats, nil
}

func (s *attachmentServiceImpl) accessibleTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	action string,
) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if !domain.HasTaskAccess(task, userID) {
		return nil, denied(action)
	}
	return task, nil
}
