package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field limits for task notes.
const (
	MaxNoteNameLength    = 255
	MaxNoteContentLength = 5000
	MaxReminderTagLength = 50
)

// TaskNote is a personal note owned by one user, optionally linked to a task.
// A user may keep several notes for the same task.
type TaskNote struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	TaskID       *uuid.UUID `json:"task_id,omitempty"`
	TaskTitle    string     `json:"task_title,omitempty"`
	NoteName     string     `json:"note_name"`
	NoteContent  string     `json:"note_content"`
	ReminderTags []string   `json:"reminder_tags"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewTaskNote creates a note for userID. Tags are trimmed and blank tags dropped.
func NewTaskNote(userID uuid.UUID, taskID *uuid.UUID, name, content string, tags []string) (*TaskNote, error) {
	now := time.Now().UTC()
	note := &TaskNote{
		ID:           uuid.New(),
		UserID:       userID,
		TaskID:       taskID,
		NoteName:     strings.TrimSpace(name),
		NoteContent:  content,
		ReminderTags: NormalizeTags(tags),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}

	return note, nil
}

// EmptyTaskNote is the placeholder returned when a user has no note for a task.
// It has a nil ID and empty content.
func EmptyTaskNote(userID, taskID uuid.UUID, taskTitle string) *TaskNote {
	id := taskID
	return &TaskNote{
		UserID:       userID,
		TaskID:       &id,
		TaskTitle:    taskTitle,
		ReminderTags: []string{},
	}
}

// IsPlaceholder reports whether the note was never saved.
func (n *TaskNote) IsPlaceholder() bool {
	return n.ID == uuid.Nil
}

// Validate checks the note fields and reports all violations at once.
func (n *TaskNote) Validate() error {
	var errs ValidationErrors

	if n.ID == uuid.Nil {
		errs.Add("id", "is required")
	}
	if n.UserID == uuid.Nil {
		errs.Add("user_id", "is required")
	}
	if n.TaskID != nil && *n.TaskID == uuid.Nil {
		errs.Add("task_id", "must be a valid task ID")
	}
	if len([]rune(n.NoteName)) > MaxNoteNameLength {
		errs.Add("note_name", "must be at most 255 characters")
	}
	if len([]rune(n.NoteContent)) > MaxNoteContentLength {
		errs.Add("note_content", "must be at most 5000 characters")
	}
	for _, tag := range n.ReminderTags {
		if len([]rune(tag)) > MaxReminderTagLength {
			errs.Add("reminder_tags", "each tag must be at most 50 characters")
			break
		}
	}

	return errs.Err()
}

// NormalizeTags trims every tag and drops blanks, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// HasTag reports exact membership of tag.
func (n *TaskNote) HasTag(tag string) bool {
	for _, t := range n.ReminderTags {
		if t == tag {
			return true
		}
	}
	return false
}
