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

// ProjectInput carries the writable fields of a project.
// A blank Status keeps the current status on update.
type ProjectInput struct {
	Name        string
	Description string
	Status      string
	Deadline    *time.Time
}

// ProjectDetails is a project with its derived task counts.
type ProjectDetails struct {
	*domain.Project
	TaskCounts domain.ProjectTaskCounts
}

// ProjectOverview summarises the projects and tasks of one user.
type ProjectOverview struct {
	TotalProjects   int64
	CompletedTasks  int64
	InProgressTasks int64
}

// ProjectService provides project lifecycle and membership operations.
type ProjectService interface {
	// List returns the projects userID owns or is a member of, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*ProjectDetails, error)

	// Create creates a project owned by userID.
	Create(ctx context.Context, userID uuid.UUID, in ProjectInput) (*ProjectDetails, error)

	// Get returns a project visible to userID.
	Get(ctx context.Context, userID, projectID uuid.UUID) (*ProjectDetails, error)

	// Update replaces name, description and deadline. Owner only.
	Update(ctx context.Context, userID, projectID uuid.UUID, in ProjectInput) (*ProjectDetails, error)

	// Delete removes the project with its tasks and attachments. Owner only.
	Delete(ctx context.Context, userID, projectID uuid.UUID) error

	// AddMember grants read access to the account registered under email. Owner only.
	AddMember(ctx context.Context, userID, projectID uuid.UUID, email string) (*ProjectDetails, error)

	// RemoveMember revokes the membership of memberID. Owner only.
	RemoveMember(ctx context.Context, userID, projectID, memberID uuid.UUID) error

	// Overview counts the user's projects and the tasks they created or are assigned.
	Overview(ctx context.Context, userID uuid.UUID) (*ProjectOverview, error)
}

type projectServiceImpl struct {
	db          *sql.DB
	projects    store.ProjectStore
	tasks       store.TaskStore
	users       store.UserStore
	attachments store.AttachmentStore
	files       store.FileStore
	logger      *slog.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(
	db *sql.DB,
	projects store.ProjectStore,
	tasks store.TaskStore,
	users store.UserStore,
	attachments store.AttachmentStore,
	files store.FileStore,
	logger *slog.Logger,
) (ProjectService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if projects == nil {
		return nil, domain.NewValidationError("projects", "cannot be nil", domain.ErrValidation)
	}
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
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

	return &projectServiceImpl{
		db:          db,
		projects:    projects,
		tasks:       tasks,
		users:       users,
		attachments: attachments,
		files:       files,
		logger:      logger.With(slog.String("component", "project_service")),
	}, nil
}

// List implements ProjectService.List.
func (s *projectServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]*ProjectDetails, error) {
	projects, err := s.projects.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	out := make([]*ProjectDetails, 0, len(projects))
	for _, p := range projects {
		details, err := s.withCounts(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, details)
	}
	return out, nil
}

// Create implements ProjectService.Create.
func (s *projectServiceImpl) Create(ctx context.Context, userID uuid.UUID, in ProjectInput) (*ProjectDetails, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project owner: %w", err)
	}

	project, err := domain.NewProject(owner.Summary(), in.Name, in.Description, in.Deadline)
	if err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	log.Info("project created",
		slog.String("project_id", project.ID.String()),
		slog.String("owner_id", userID.String()))
	return &ProjectDetails{Project: project}, nil
}

// Get implements ProjectService.Get.
func (s *projectServiceImpl) Get(ctx context.Context, userID, projectID uuid.UUID) (*ProjectDetails, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if !domain.HasProjectAccess(project, userID) {
		return nil, denied("view project")
	}
	return s.withCounts(ctx, project)
}

// Update implements ProjectService.Update.
func (s *projectServiceImpl) Update(
	ctx context.Context,
	userID, projectID uuid.UUID,
	in ProjectInput,
) (*ProjectDetails, error) {
	var status domain.ProjectStatus
	if strings.TrimSpace(in.Status) != "" {
		parsed, err := domain.ParseProjectStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	var project *domain.Project
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		projects := s.projects.WithTx(tx)

		p, err := projects.GetByIDForUpdate(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		if !domain.CanModifyProject(p, userID) {
			return denied("update project")
		}

		p.Name = strings.TrimSpace(in.Name)
		p.Description = strings.TrimSpace(in.Description)
		p.Deadline = in.Deadline
		if status != "" {
			p.Status = status
		}
		if err := projects.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("project updated",
		slog.String("project_id", projectID.String()))
	return s.withCounts(ctx, project)
}

// Delete implements ProjectService.Delete. Attachment blobs are removed
// after the rows are gone; a blob that cannot be removed is only logged.
func (s *projectServiceImpl) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	var blobs []string
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		projects := s.projects.WithTx(tx)

		p, err := projects.GetByIDForUpdate(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		if !domain.CanModifyProject(p, userID) {
			return denied("delete project")
		}

		attachments, err := s.attachments.WithTx(tx).ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list project attachments: %w", err)
		}
		blobs = storedFilenames(attachments)

		if err := projects.Delete(ctx, projectID); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	removeBlobs(ctx, logger.FromContextOrDefault(ctx, s.logger), s.files, blobs)
	logger.FromContextOrDefault(ctx, s.logger).Info("project deleted",
		slog.String("project_id", projectID.String()),
		slog.Int("attachments", len(blobs)))
	return nil
}

// AddMember implements ProjectService.AddMember.
func (s *projectServiceImpl) AddMember(
	ctx context.Context,
	userID, projectID uuid.UUID,
	email string,
) (*ProjectDetails, error) {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		projects := s.projects.WithTx(tx)

		p, err := projects.GetByIDForUpdate(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		if !domain.CanModifyProject(p, userID) {
			return denied("add project member")
		}

		member, err := s.users.WithTx(tx).GetByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to find user to add: %w", err)
		}
		if member.ID == p.Owner.ID {
			return domain.NewValidationError("email", "the project owner is already a member", domain.ErrValidation)
		}

		if err := projects.AddMember(ctx, projectID, member.ID); err != nil {
			return fmt.Errorf("failed to add project member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, projectID)
}

// RemoveMember implements ProjectService.RemoveMember.
func (s *projectServiceImpl) RemoveMember(ctx context.Context, userID, projectID, memberID uuid.UUID) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		projects := s.projects.WithTx(tx)

		p, err := projects.GetByIDForUpdate(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		if !domain.CanModifyProject(p, userID) {
			return denied("remove project member")
		}

		if err := projects.RemoveMember(ctx, projectID, memberID); err != nil {
			return fmt.Errorf("failed to remove project member: %w", err)
		}
		return nil
	})
}

// Overview implements ProjectService.Overview.
func (s *projectServiceImpl) Overview(ctx context.Context, userID uuid.UUID) (*ProjectOverview, error) {
	total, err := s.projects.CountForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	stats, err := s.tasks.CountParticipatingByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return &ProjectOverview{
		TotalProjects:   total,
		CompletedTasks:  stats.Completed,
		InProgressTasks: stats.InProgress,
	}, nil
}

func (s *projectServiceImpl) withCounts(ctx context.Context, project *domain.Project) (*ProjectDetails, error) {
	counts, err := s.projects.TaskCounts(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count project tasks: %w", err)
	}
	return &ProjectDetails{Project: project, TaskCounts: counts}, nil
}

func storedFilenames(attachments []*domain.TaskAttachment) []string {
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.StoredFilename)
	}
	return names
}

// removeBlobs deletes stored files whose rows are already gone.
func removeBlobs(ctx context.Context, log *slog.Logger, files store.FileStore, names []string) {
	for _, name := range names {
		if err := files.Delete(ctx, name); err != nil && !errors.Is(err, store.ErrFileNotFound) {
			log.Warn("failed to remove attachment blob",
				slog.String("error", err.Error()),
				slog.String("stored_filename", name))
		}
	}
}
