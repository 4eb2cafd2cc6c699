package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/store"
)

// TaskInput carries the writable fields of a task. Blank Status and
// Priority fall back to TODO and MEDIUM.
type TaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	ProjectID   uuid.UUID
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
}

// TaskSearch is a raw task listing request. Blank filters match everything.
type TaskSearch struct {
	Text      string
	Status    string
	Priority  string
	ProjectID *uuid.UUID
	SortBy    string
	SortDir   string
	Page      int
	Size      int
}

// TaskService provides task operations scoped to the calling user.
type TaskService interface {
	// Search returns one page of the tasks userID can see.
	Search(ctx context.Context, userID uuid.UUID, search TaskSearch) (*domain.TaskPage, error)

	// Get returns a task visible to userID.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// Create adds a task to a project the caller owns.
	Create(ctx context.Context, userID uuid.UUID, in TaskInput) (*domain.Task, error)

	// Update replaces every writable field. A nil AssigneeID clears the assignee.
	Update(ctx context.Context, userID, taskID uuid.UUID, in TaskInput) (*domain.Task, error)

	// UpdateStatus changes only the status.
	UpdateStatus(ctx context.Context, userID, taskID uuid.UUID, status string) (*domain.Task, error)

	// Delete removes the task with its notes and attachments.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// Stats counts the tasks userID can see, by status.
	Stats(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error)
}

type taskServiceImpl struct {
	db          *sql.DB
	tasks       store.TaskStore
	projects    store.ProjectStore
	users       store.UserStore
	attachments store.AttachmentStore
	files       store.FileStore
	logger      *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(
	db *sql.DB,
	tasks store.TaskStore,
	projects store.ProjectStore,
	users store.UserStore,
	attachments store.AttachmentStore,
	files store.FileStore,
	logger *slog.Logger,
) (TaskService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if projects == nil {
		return nil, domain.NewValidationError("projects", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if attachments == nil {
		return nil, domain.NewValidationError("attachments", "cannot be nil", domain.ErrValidation)
	}
	if files == nil {
		return nil, domain.NewValidationError("files", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:          db,
		tasks:       tasks,
		projects:    projects,
		users:       users,
		attachments: attachments,
		files:       files,
		logger:      logger.With(slog.String("component", "task_service")),
	}, nil
}

// Search implements TaskService.Search.
func (s *taskServiceImpl) Search(ctx context.Context, userID uuid.UUID, search TaskSearch) (*domain.TaskPage, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	filter := domain.TaskFilter{
		Text:      strings.TrimSpace(search.Text),
		ProjectID: search.ProjectID,
	}
	if strings.TrimSpace(search.Status) != "" {
		status, err := domain.ParseTaskStatus(search.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if strings.TrimSpace(search.Priority) != "" {
		priority, err := domain.ParseTaskPriority(search.Priority)
		if err != nil {
			return nil, err
		}
		filter.Priority = &priority
	}

	page, err := domain.NewPageRequest(search.Page, search.Size)
	if err != nil {
		return nil, err
	}

	query := domain.TaskQuery{
		Filter: filter,
		Sort: domain.TaskSort{
			Field:     domain.ParseTaskSortField(search.SortBy),
			Direction: domain.ParseSortDirection(search.SortDir),
		},
		Page: page,
	}

	tasks, total, err := s.tasks.QueryAccessible(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return domain.NewTaskPage(tasks, total, page), nil
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if !domain.HasTaskAccess(task, userID) {
		return nil, denied("view task")
	}
	return task, nil
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(ctx context.Context, userID uuid.UUID, in TaskInput) (*domain.Task, error) {
	status, priority, err := parseStatusAndPriority(in.Status, in.Priority)
	if err != nil {
		return nil, err
	}

	var task *domain.Task
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)

		project, err := s.projects.WithTx(tx).GetByIDForUpdate(ctx, in.ProjectID)
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		if !domain.CanCreateTask(project, userID) {
			return denied("create task in project")
		}

		creator, err := users.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load task creator: %w", err)
		}
		assignee, err := resolveAssignee(ctx, users, in.AssigneeID)
		if err != nil {
			return err
		}

		ref := domain.ProjectRef{ID: project.ID, Name: project.Name, OwnerID: project.Owner.ID}
		task, err = domain.NewTask(ref, creator.Summary(), in.Title, in.Description, status, priority, assignee, in.DueDate)
		if err != nil {
			return err
		}
		if err := s.tasks.WithTx(tx).Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", task.Project.ID.String()))
	return task, nil
}

// Update implements TaskService.Update. The task stays in its project;
// in.ProjectID is ignored.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	in TaskInput,
) (*domain.Task, error) {
	status, priority, err := parseStatusAndPriority(in.Status, in.Priority)
	if err != nil {
		return nil, err
	}

	var task *domain.Task
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		t, err := tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}
		if !domain.CanModifyTask(t, userID) {
			return denied("update task")
		}

		assignee, err := resolveAssignee(ctx, s.users.WithTx(tx), in.AssigneeID)
		if err != nil {
			return err
		}

		t.Title = strings.TrimSpace(in.Title)
		t.Description = strings.TrimSpace(in.Description)
		t.Status = status
		t.Priority = priority
		t.Assignee = assignee
		t.DueDate = in.DueDate
		if err := tasks.Update(ctx, t); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task updated",
		slog.String("task_id", taskID.String()))
	return task, nil
}

// UpdateStatus implements TaskService.UpdateStatus.
func (s *taskServiceImpl) UpdateStatus(
	ctx context.Context,
	userID, taskID uuid.UUID,
	status string,
) (*domain.Task, error) {
	if strings.TrimSpace(status) == "" {
		return nil, domain.NewValidationError("status", "is required", domain.ErrInvalidTaskStatus)
	}
	parsed, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}

	var task *domain.Task
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		t, err := tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}
		if !domain.CanChangeTaskStatus(t, userID) {
			return denied("change task status")
		}

		if err := tasks.UpdateStatus(ctx, taskID, parsed); err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}
		t.Status = parsed
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task status changed",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(parsed)))
	return task, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	var blobs []string
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		t, err := tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}
		if !domain.CanModifyTask(t, userID) {
			return denied("delete task")
		}

		attachments, err := s.attachments.WithTx(tx).ListByTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to list task attachments: %w", err)
		}
		blobs = storedFilenames(attachments)

		if err := tasks.Delete(ctx, taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	removeBlobs(ctx, log, s.files, blobs)
	log.Info("task deleted", slog.String("task_id", taskID.String()))
	return nil
}

// Stats implements TaskService.Stats.
func (s *taskServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	stats, err := s.tasks.CountAccessibleByStatus(ctx, userID)
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	return stats, nil
}

func parseStatusAndPriority(status, priority string) (domain.TaskStatus, domain.TaskPriority, error) {
	var errs domain.ValidationErrors

	st, err := domain.ParseTaskStatus(status)
	if err != nil {
		appendValidation(&errs, err)
	}
	pr, err := domain.ParseTaskPriority(priority)
	if err != nil {
		appendValidation(&errs, err)
	}
	if err := errs.Err(); err != nil {
		return "", "", err
	}
	return st, pr, nil
}

func appendValidation(errs *domain.ValidationErrors, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		errs.Append(ve)
	}
}

// resolveAssignee loads the assignee summary. A nil id means no assignee;
// an unknown id is a not-found error.
func resolveAssignee(ctx context.Context, users store.UserStore, id *uuid.UUID) (*domain.UserSummary, error) {
	if id == nil {
		return nil, nil
	}
	user, err := users.GetByID(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignee: %w", err)
	}
	summary := user.Summary()
	return &summary, nil
}
