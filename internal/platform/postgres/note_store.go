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

const noteSelect = `
	SELECT n.id, n.user_id, n.task_id, COALESCE(t.title, ''), n.note_name, n.note_content,
	       n.created_at, n.updated_at
	FROM task_notes n
	LEFT JOIN tasks t ON t.id = n.task_id`

const noteOrder = ` ORDER BY n.created_at DESC, n.id DESC`

// PostgresNoteStore implements store.NoteStore on PostgreSQL.
// Tags live in task_note_tags, one row per tag, ordered by position.
type PostgresNoteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.NoteStore = (*PostgresNoteStore)(nil)

// NewPostgresNoteStore creates a note store.
func NewPostgresNoteStore(db store.DBTX, logger *slog.Logger) *PostgresNoteStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNoteStore{
		db:     db,
		logger: logger.With(slog.String("component", "note_store")),
	}
}

// WithTx implements store.NoteStore.WithTx.
func (s *PostgresNoteStore) WithTx(tx *sql.Tx) store.NoteStore {
	return &PostgresNoteStore{db: tx, logger: s.logger}
}

// Create implements store.NoteStore.Create.
// The note row and its tags must be written in one transaction; callers use WithTx.
func (s *PostgresNoteStore) Create(ctx context.Context, note *domain.TaskNote) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		log.Warn("task note validation failed during create", slog.String("error", err.Error()))
		return err
	}

	var taskID uuid.NullUUID
	if note.TaskID != nil {
		taskID = uuid.NullUUID{UUID: *note.TaskID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_notes (id, user_id, task_id, note_name, note_content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		note.ID, note.UserID, taskID, note.NoteName, note.NoteContent, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return MapError(err)
	}

	for i, tag := range note.ReminderTags {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO task_note_tags (note_id, position, tag) VALUES ($1, $2, $3)`,
			note.ID, i, tag,
		); err != nil {
			log.Error("failed to store task note tag",
				slog.String("error", err.Error()),
				slog.String("note_id", note.ID.String()))
			return MapError(err)
		}
	}

	log.Info("task note created",
		slog.String("note_id", note.ID.String()),
		slog.String("user_id", note.UserID.String()))
	return nil
}

// LatestForTask implements store.NoteStore.LatestForTask.
func (s *PostgresNoteStore) LatestForTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.TaskNote, error) {
	notes, err := s.list(ctx, `n.user_id = $1 AND n.task_id = $2`, noteOrder+` LIMIT 1`, userID, taskID)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, store.ErrNoteNotFound
	}
	return notes[0], nil
}

// ListByUser implements store.NoteStore.ListByUser.
func (s *PostgresNoteStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskNote, error) {
	return s.list(ctx, `n.user_id = $1`, noteOrder, userID)
}

// ListByUserAndTag implements store.NoteStore.ListByUserAndTag.
func (s *PostgresNoteStore) ListByUserAndTag(
	ctx context.Context,
	userID uuid.UUID,
	tag string,
) ([]*domain.TaskNote, error) {
	return s.list(ctx,
		`n.user_id = $1 AND EXISTS (SELECT 1 FROM task_note_tags tg WHERE tg.note_id = n.id AND tg.tag = $2)`,
		noteOrder, userID, tag,
	)
}

// DistinctTags implements store.NoteStore.DistinctTags.
func (s *PostgresNoteStore) DistinctTags(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT tg.tag
		FROM task_note_tags tg
		JOIN task_notes n ON n.id = tg.note_id
		WHERE n.user_id = $1
		ORDER BY tg.tag`,
		userID,
	)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, MapError(err)
		}
		tags = append(tags, tag)
	}
	return tags, MapError(rows.Err())
}

// ExistsForTask implements store.NoteStore.ExistsForTask.
func (s *PostgresNoteStore) ExistsForTask(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM task_notes WHERE user_id = $1 AND task_id = $2)`,
		userID, taskID,
	).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// DeleteForTask implements store.NoteStore.DeleteForTask.
func (s *PostgresNoteStore) DeleteForTask(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM task_notes WHERE user_id = $1 AND task_id = $2`,
		userID, taskID,
	)
	if err != nil {
		log.Error("failed to delete task notes",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrNoteNotFound); err != nil {
		return err
	}

	log.Info("task notes deleted",
		slog.String("user_id", userID.String()),
		slog.String("task_id", taskID.String()))
	return nil
}

// DeleteByID implements store.NoteStore.DeleteByID.
func (s *PostgresNoteStore) DeleteByID(ctx context.Context, userID, noteID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM task_notes WHERE id = $1 AND user_id = $2`,
		noteID, userID,
	)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNoteNotFound)
}

// list loads the notes matched by where, then their tags with a second
// query over the same predicate.
func (s *PostgresNoteStore) list(
	ctx context.Context,
	where, suffix string,
	args ...any,
) ([]*domain.TaskNote, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, noteSelect+` WHERE `+where+suffix, args...)
	if err != nil {
		log.Error("failed to query task notes", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	notes := []*domain.TaskNote{}
	byID := make(map[uuid.UUID]*domain.TaskNote)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, MapError(err)
		}
		notes = append(notes, note)
		byID[note.ID] = note
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	if len(notes) == 0 {
		return notes, nil
	}

	if err := s.attachTags(ctx, byID, where, suffix, args...); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *PostgresNoteStore) attachTags(
	ctx context.Context,
	byID map[uuid.UUID]*domain.TaskNote,
	where, suffix string,
	args ...any,
) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tg.note_id, tg.tag
		FROM task_note_tags tg
		WHERE tg.note_id IN (SELECT n.id FROM task_notes n WHERE `+where+suffix+`)
		ORDER BY tg.note_id, tg.position`,
		args...,
	)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var noteID uuid.UUID
		var tag string
		if err := rows.Scan(&noteID, &tag); err != nil {
			return MapError(err)
		}
		if note, ok := byID[noteID]; ok {
			note.ReminderTags = append(note.ReminderTags, tag)
		}
	}
	return MapError(rows.Err())
}

func scanNote(row rowScanner) (*domain.TaskNote, error) {
	var n domain.TaskNote
	var taskID uuid.NullUUID
	if err := row.Scan(
		&n.ID, &n.UserID, &taskID, &n.TaskTitle, &n.NoteName, &n.NoteContent,
		&n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoteNotFound
		}
		return nil, err
	}
	if taskID.Valid {
		id := taskID.UUID
		n.TaskID = &id
	}
	n.ReminderTags = []string{}
	return &n, nil
}
