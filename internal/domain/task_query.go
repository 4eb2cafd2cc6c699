package domain

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Paging defaults for task searches.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxOffset bounds page*size so the SQL OFFSET stays a valid positive integer.
	MaxOffset = math.MaxInt32
)

// TaskFilter narrows a task search. Zero values mean "no constraint";
// all set constraints are combined with AND.
type TaskFilter struct {
	// Text is matched case-insensitively as a substring of title or description.
	Text      string
	Status    *TaskStatus
	Priority  *TaskPriority
	ProjectID *uuid.UUID
}

// TaskSortField names a sortable task attribute.
type TaskSortField string

// Sortable task fields.
const (
	SortByCreatedAt TaskSortField = "createdAt"
	SortByUpdatedAt TaskSortField = "updatedAt"
	SortByDueDate   TaskSortField = "dueDate"
	SortByTitle     TaskSortField = "title"
	SortByPriority  TaskSortField = "priority"
	SortByStatus    TaskSortField = "status"
)

var taskSortFields = []TaskSortField{
	SortByCreatedAt,
	SortByUpdatedAt,
	SortByDueDate,
	SortByTitle,
	SortByPriority,
	SortByStatus,
}

// ParseTaskSortField maps s onto a sortable field, ignoring case.
// Unknown or blank names fall back to SortByCreatedAt.
func ParseTaskSortField(s string) TaskSortField {
	trimmed := strings.TrimSpace(s)
	for _, field := range taskSortFields {
		if strings.EqualFold(string(field), trimmed) {
			return field
		}
	}
	return SortByCreatedAt
}

// SortDirection orders search results.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParseSortDirection returns SortAsc only for "asc" in any case; everything else is SortDesc.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// TaskSort is the ordering of a task search. Results are always tie-broken
// by task ID in the same direction so that pages never overlap.
type TaskSort struct {
	Field     TaskSortField
	Direction SortDirection
}

// DefaultTaskSort is newest first.
var DefaultTaskSort = TaskSort{Field: SortByCreatedAt, Direction: SortDesc}

// PageRequest selects a zero-based page of results.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest validates page and applies size defaults: a non-positive
// size becomes DefaultPageSize and sizes above MaxPageSize are capped.
// Pages whose offset would exceed MaxOffset are rejected.
func NewPageRequest(page, size int) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, NewValidationError("page", "must not be negative", ErrValidation)
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page > MaxOffset/size {
		return PageRequest{}, NewValidationError("page", "is too large", ErrValidation)
	}
	return PageRequest{Page: page, Size: size}, nil
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// TaskQuery bundles the inputs of an accessible-task search.
type TaskQuery struct {
	Filter TaskFilter
	Sort   TaskSort
	Page   PageRequest
}

// TaskPage is one page of search results plus the total number of matches.
type TaskPage struct {
	Items      []*Task `json:"items"`
	TotalCount int64   `json:"total_count"`
	Page       int     `json:"page"`
	Size       int     `json:"size"`
	TotalPages int     `json:"total_pages"`
}

// NewTaskPage assembles a page and derives the page count.
func NewTaskPage(items []*Task, total int64, page PageRequest) *TaskPage {
	if items == nil {
		items = []*Task{}
	}
	totalPages := 0
	if page.Size > 0 {
		totalPages = int((total + int64(page.Size) - 1) / int64(page.Size))
	}
	return &TaskPage{
		Items:      items,
		TotalCount: total,
		Page:       page.Page,
		Size:       page.Size,
		TotalPages: totalPages,
	}
}
