package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/store"
)

// NoteInput carries the fields of a personal task note.
type NoteInput struct {
	TaskID       *uuid.UUID
	NoteName     string
	NoteContent  string
	ReminderTags []string
}

// NoteService manages the caller's private notes. Notes are never shared;
// every operation is scoped to userID.
type NoteService interface {
	// GetOrEmpty returns the newest note userID wrote for taskID, or an
	// unsaved placeholder carrying the task title when there is none.
	GetOrEmpty(ctx context.Context, userID, taskID uuid.UUID) (*domain.TaskNote, error)

	// Save stores a new note. Saving again for the same task adds another
	// note; GetOrEmpty returns the newest.
	Save(ctx context.Context, userID uuid.UUID, in NoteInput) (*domain.TaskNote, error)

	// DeleteForTask removes every note userID wrote for taskID.
	DeleteForTask(ctx context.Context, userID, taskID uuid.UUID) error

	// Delete removes one note owned by userID.
	Delete(ctx context.Context, userID, noteID uuid.UUID) error

	// List returns all notes of userID, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*domain.TaskNote, error)

	// ListByTag returns the notes of userID carrying tag.
	ListByTag(ctx context.Context, userID uuid.UUID, tag string) ([]*domain.TaskNote, error)

	// Tags returns the distinct tags userID has used, sorted.
	Tags(ctx context.Context, userID uuid.UUID) ([]string, error)

	// HasNote reports whether userID has a note for taskID.
	HasNote(ctx context.Context, userID, taskID uuid.UUID) (bool, error)
}

type noteServiceImpl struct {
	db     *sql.DB
	notes  store.NoteStore
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewNoteService creates a NoteService.
func NewNoteService(db *sql.DB, notes store.NoteStore, tasks store.TaskStore, logger *slog.Logger) (NoteService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if notes == nil {
		return nil, domain.NewValidationError("notes", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &noteServiceImpl{
		db:     db,
		notes:  notes,
		tasks:  tasks,
		logger: logger.With(slog.String("component", "note_service")),
	}, nil
}

// GetOrEmpty implements NoteService.GetOrEmpty.
// An existing note is returned without a task access check: it is the
// caller's own writing. The placeholder path requires access to the task.
func (s *noteServiceImpl) GetOrEmpty(ctx context.Context, userID, taskID uuid.UUID) (*domain.TaskNote, error) {
	note, err := s.notes.LatestForTask(ctx, userID, taskID)
	if err == nil {
		return note, nil
	}
	if !errors.Is(err, store.ErrNoteNotFound) {
		return nil, fmt.Errorf("failed to load task note: %w", err)
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if !domain.HasTaskAccess(task, userID) {
		return nil, denied("view task note")
	}
	return domain.EmptyTaskNote(userID, taskID, task.Title), nil
}

// Save implements NoteService.Save.
func (s *noteServiceImpl) Save(ctx context.Context, userID uuid.UUID, in NoteInput) (*domain.TaskNote, error) {
	note, err := domain.NewTaskNote(userID, in.TaskID, in.NoteName, in.NoteContent, in.ReminderTags)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if note.TaskID != nil {
			task, err := s.tasks.WithTx(tx).GetByID(ctx, *note.TaskID)
			if err != nil {
				return fmt.Errorf("failed to load task: %w", err)
			}
			if !domain.HasTaskAccess(task, userID) {
				return denied("write task note")
			}
			note.TaskTitle = task.Title
		}

		if err := s.notes.WithTx(tx).Create(ctx, note); err != nil {
			return fmt.Errorf("failed to save task note: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task note saved",
		slog.String("note_id", note.ID.String()),
		slog.Int("tags", len(note.ReminderTags)))
	return note, nil
}

// DeleteForTask implements NoteService.DeleteForTask.
func (s *noteServiceImpl) DeleteForTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := s.notes.DeleteForTask(ctx, userID, taskID); err != nil {
		return fmt.Errorf("failed to delete task notes: %w", err)
	}
	return nil
}

// Delete implements NoteService.Delete.
func (s *noteServiceImpl) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	if err := s.notes.DeleteByID(ctx, userID, noteID); err != nil {
		return fmt.Errorf("failed to delete task note: %w", err)
	}
	return nil
}

// List implements NoteService.List.
func (s *noteServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]*domain.TaskNote, error) {
	notes, err := s.notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task notes: %w", err)
	}
	return notes, nil
}

// ListByTag implements NoteService.ListByTag.
func (s *noteServiceImpl) ListByTag(ctx context.Context, userID uuid.UUID, tag string) ([]*domain.TaskNote, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, domain.NewValidationError("tag", "is required", domain.ErrValidation)
	}
	notes, err := s.notes.ListByUserAndTag(ctx, userID, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list task notes by tag: %w", err)
	}
	return notes, nil
}

// Tags implements NoteService.Tags.
func (s *noteServiceImpl) Tags(ctx context.Context, userID uuid.UUID) ([]string, error) {
	tags, err := s.notes.DistinctTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder tags: %w", err)
	}
	return tags, nil
}

// HasNote implements NoteService.HasNote.
func (s *noteServiceImpl) HasNote(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	exists, err := s.notes.ExistsForTask(ctx, userID, taskID)
	if err != nil {
		return false, fmt.Errorf("failed to check task note: %w", err)
	}
	return exists, nil
}
