package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field limits for projects.
const (
	MinProjectNameLength     = 2
	MaxProjectNameLength     = 100
	MaxProjectDescriptionLen = 1000
)

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

// Possible project status values.
const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// ParseProjectStatus parses s case-insensitively. A blank value yields ACTIVE.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch ProjectStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return ProjectStatusActive, nil
	case ProjectStatusActive:
		return ProjectStatusActive, nil
	case ProjectStatusOnHold:
		return ProjectStatusOnHold, nil
	case ProjectStatusCompleted:
		return ProjectStatusCompleted, nil
	case ProjectStatusCancelled:
		return ProjectStatusCancelled, nil
	default:
		return "", NewValidationError(
			"status",
			"must be one of ACTIVE, ON_HOLD, COMPLETED, CANCELLED",
			ErrInvalidProjectStatus,
		)
	}
}

// Project groups tasks under a single owner. Members get read access;
// the owner is implicitly a member even when absent from Members.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	Owner       UserSummary   `json:"owner"`
	Members     []UserSummary `json:"members"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProjectTaskCounts holds the per-project task aggregates shown on reads.
type ProjectTaskCounts struct {
	Total      int64 `json:"total_tasks"`
	Completed  int64 `json:"completed_tasks"`
	InProgress int64 `json:"in_progress_tasks"`
}

// NewProject creates an ACTIVE project owned by owner.
func NewProject(owner UserSummary, name, description string, deadline *time.Time) (*Project, error) {
	now := time.Now().UTC()
	project := &Project{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      ProjectStatusActive,
		Owner:       owner,
		Members:     []UserSummary{},
		Deadline:    deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}

	return project, nil
}

// Validate checks the project fields and reports all violations at once.
func (p *Project) Validate() error {
	var errs ValidationErrors

	if p.ID == uuid.Nil {
		errs.Add("id", "is required")
	}
	if p.Owner.ID == uuid.Nil {
		errs.Add("owner", "is required")
	}

	nameLen := len([]rune(strings.TrimSpace(p.Name)))
	switch {
	case nameLen == 0:
		errs.Add("name", "is required")
	case nameLen < MinProjectNameLength || nameLen > MaxProjectNameLength:
		errs.Add("name", "must be between 2 and 100 characters")
	}

	if len([]rune(p.Description)) > MaxProjectDescriptionLen {
		errs.Add("description", "must be at most 1000 characters")
	}

	if _, err := ParseProjectStatus(string(p.Status)); err != nil || p.Status == "" {
		errs.Add("status", "must be one of ACTIVE, ON_HOLD, COMPLETED, CANCELLED")
	}

	return errs.Err()
}

// IsMember reports whether userID is in the explicit member set.
// It does not consider the owner; use HasProjectAccess for access checks.
func (p *Project) IsMember(userID uuid.UUID) bool {
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
