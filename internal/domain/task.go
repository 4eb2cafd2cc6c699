package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field limits for tasks.
const (
	MinTaskTitleLength    = 3
	MaxTaskTitleLength    = 200
	MaxTaskDescriptionLen = 2000
)

// Defaults applied when a request leaves status or priority blank.
const (
	DefaultTaskStatus   = TaskStatusTodo
	DefaultTaskPriority = TaskPriorityMedium
)

const (
	taskStatusMsg   = "must be one of TODO, IN_PROGRESS, COMPLETED, CANCELLED"
	taskPriorityMsg = "must be one of LOW, MEDIUM, HIGH, URGENT"
)

// TaskStatus is the workflow state of a task. Any status may follow any other.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// TaskStatuses lists every status in workflow order.
var TaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

// TaskPriority is the urgency of a task.
type TaskPriority string

// Possible task priority values.
const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// TaskPriorities lists every priority from lowest to highest.
var TaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityUrgent,
}

// ParseTaskStatus parses s case-insensitively. A blank value yields the default status.
func ParseTaskStatus(s string) (TaskStatus, error) {
	normalized := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	if normalized == "" {
		return DefaultTaskStatus, nil
	}
	for _, status := range TaskStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", NewValidationError("status", taskStatusMsg, ErrInvalidTaskStatus)
}

// ParseTaskPriority parses s case-insensitively. A blank value yields the default priority.
func ParseTaskPriority(s string) (TaskPriority, error) {
	normalized := TaskPriority(strings.ToUpper(strings.TrimSpace(s)))
	if normalized == "" {
		return DefaultTaskPriority, nil
	}
	for _, priority := range TaskPriorities {
		if priority == normalized {
			return priority, nil
		}
	}
	return "", NewValidationError("priority", taskPriorityMsg, ErrInvalidTaskPriority)
}

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	for _, status := range TaskStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// IsValid reports whether p is a known priority.
func (p TaskPriority) IsValid() bool {
	for _, priority := range TaskPriorities {
		if priority == p {
			return true
		}
	}
	return false
}

// ProjectRef is the slice of a project a task needs for access decisions.
type ProjectRef struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// Task is a unit of work inside a project.
// Project and Creator are fixed at creation.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Project     ProjectRef   `json:"project"`
	Creator     UserSummary  `json:"creator"`
	Assignee    *UserSummary `json:"assignee,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TaskStats summarises the tasks visible to one user.
type TaskStats struct {
	Total      int64 `json:"total_tasks"`
	Todo       int64 `json:"todo_tasks"`
	InProgress int64 `json:"in_progress_tasks"`
	Completed  int64 `json:"completed_tasks"`
	Cancelled  int64 `json:"cancelled_tasks"`
}

// NewTask creates a task in project authored by creator.
func NewTask(
	project ProjectRef,
	creator UserSummary,
	title, description string,
	status TaskStatus,
	priority TaskPriority,
	assignee *UserSummary,
	dueDate *time.Time,
) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      status,
		Priority:    priority,
		Project:     project,
		Creator:     creator,
		Assignee:    assignee,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task fields and reports all violations at once.
func (t *Task) Validate() error {
	var errs ValidationErrors

	if t.ID == uuid.Nil {
		errs.Add("id", "is required")
	}
	if t.Project.ID == uuid.Nil {
		errs.Add("project_id", "is required")
	}
	if t.Project.OwnerID == uuid.Nil {
		errs.Add("project_owner", "is required")
	}
	if t.Creator.ID == uuid.Nil {
		errs.Add("creator", "is required")
	}
	if t.Assignee != nil && t.Assignee.ID == uuid.Nil {
		errs.Add("assignee_id", "must reference an existing user")
	}

	titleLen := len([]rune(strings.TrimSpace(t.Title)))
	switch {
	case titleLen == 0:
		errs.Add("title", "is required")
	case titleLen < MinTaskTitleLength || titleLen > MaxTaskTitleLength:
		errs.Add("title", "must be between 3 and 200 characters")
	}

	if len([]rune(t.Description)) > MaxTaskDescriptionLen {
		errs.Add("description", "must be at most 2000 characters")
	}

	if !t.Status.IsValid() {
		errs.Add("status", taskStatusMsg)
	}
	if !t.Priority.IsValid() {
		errs.Add("priority", taskPriorityMsg)
	}

	return errs.Err()
}
