package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/store"
)

const projectSelect = `
	SELECT p.id, p.name, p.description, p.status, p.deadline, p.created_at, p.updated_at,
	       o.id, o.first_name, o.last_name, o.email, o.role
	FROM projects p
	JOIN users o ON o.id = p.owner_id`

const projectAccessPredicate = `(p.owner_id = $1 OR EXISTS (
		SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = $1))`

// PostgresProjectStore implements store.ProjectStore on PostgreSQL.
type PostgresProjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ProjectStore = (*PostgresProjectStore)(nil)

// NewPostgresProjectStore creates a project store.
func NewPostgresProjectStore(db store.DBTX, logger *slog.Logger) *PostgresProjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "project_store")),
	}
}

// WithTx implements store.ProjectStore.WithTx.
func (s *PostgresProjectStore) WithTx(tx *sql.Tx) store.ProjectStore {
	return &PostgresProjectStore{db: tx, logger: s.logger}
}

// Create implements store.ProjectStore.Create.
func (s *PostgresProjectStore) Create(ctx context.Context, project *domain.Project) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := project.Validate(); err != nil {
		log.Warn("project validation failed during create", slog.String("error", err.Error()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, status, owner_id, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		project.ID, project.Name, project.Description, string(project.Status),
		project.Owner.ID, project.Deadline, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create project",
			slog.String("error", err.Error()),
			slog.String("project_id", project.ID.String()))
		return MapError(err)
	}

	log.Info("project created",
		slog.String("project_id", project.ID.String()),
		slog.String("owner_id", project.Owner.ID.String()))
	return nil
}

// GetByID implements store.ProjectStore.GetByID.
func (s *PostgresProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.get(ctx, projectSelect+` WHERE p.id = $1`, id)
}

// GetByIDForUpdate implements store.ProjectStore.GetByIDForUpdate.
func (s *PostgresProjectStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.get(ctx, projectSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id)
}

func (s *PostgresProjectStore) get(ctx context.Context, query string, id uuid.UUID) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	project, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		mapped := mapEntityError(err, store.ErrProjectNotFound)
		if !errors.Is(mapped, store.ErrProjectNotFound) {
			log.Error("failed to load project",
				slog.String("error", err.Error()),
				slog.String("project_id", id.String()))
		}
		return nil, mapped
	}

	members, err := s.loadMembers(ctx, `pm.project_id = $1`, id)
	if err != nil {
		return nil, err
	}
	project.Members = membersOf(members, project.ID)

	return project, nil
}

// ListForUser implements store.ProjectStore.ListForUser.
func (s *PostgresProjectStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		projectSelect+` WHERE `+projectAccessPredicate+` ORDER BY p.created_at DESC, p.id DESC`,
		userID,
	)
	if err != nil {
		log.Error("failed to list projects",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	projects := []*domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, MapError(err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	if len(projects) == 0 {
		return projects, nil
	}

	members, err := s.loadMembers(ctx,
		`pm.project_id IN (SELECT p.id FROM projects p WHERE `+projectAccessPredicate+`)`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		project.Members = membersOf(members, project.ID)
	}

	return projects, nil
}

// Update implements store.ProjectStore.Update.
func (s *PostgresProjectStore) Update(ctx context.Context, project *domain.Project) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := project.Validate(); err != nil {
		return err
	}

	project.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = $1, description = $2, status = $3, deadline = $4, updated_at = $5
		WHERE id = $6`,
		project.Name, project.Description, string(project.Status), project.Deadline,
		project.UpdatedAt, project.ID,
	)
	if err != nil {
		log.Error("failed to update project",
			slog.String("error", err.Error()),
			slog.String("project_id", project.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrProjectNotFound)
}

// Delete implements store.ProjectStore.Delete.
// Memberships, tasks and task attachments rows are removed by cascade.
func (s *PostgresProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete project",
			slog.String("error", err.Error()),
			slog.String("project_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrProjectNotFound); err != nil {
		return err
	}

	log.Info("project deleted", slog.String("project_id", id.String()))
	return nil
}

// AddMember implements store.ProjectStore.AddMember.
func (s *PostgresProjectStore) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, added_at) VALUES ($1, $2, $3)`,
		projectID, userID, time.Now().UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrAlreadyMember
		}
		log.Error("failed to add project member",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	log.Info("project member added",
		slog.String("project_id", projectID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// RemoveMember implements store.ProjectStore.RemoveMember.
func (s *PostgresProjectStore) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID,
	)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// CountForUser implements store.ProjectStore.CountForUser.
func (s *PostgresProjectStore) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects p WHERE `+projectAccessPredicate,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// TaskCounts implements store.ProjectStore.TaskCounts.
func (s *PostgresProjectStore) TaskCounts(ctx context.Context, projectID uuid.UUID) (domain.ProjectTaskCounts, error) {
	var counts domain.ProjectTaskCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		       COUNT(*) FILTER (WHERE status = 'IN_PROGRESS')
		FROM tasks
		WHERE project_id = $1`,
		projectID,
	).Scan(&counts.Total, &counts.Completed, &counts.InProgress)
	if err != nil {
		return domain.ProjectTaskCounts{}, MapError(err)
	}
	return counts, nil
}

// loadMembers returns the members of every project matched by where,
// keyed by project ID, in the order they joined.
func (s *PostgresProjectStore) loadMembers(
	ctx context.Context,
	where string,
	args ...any,
) (map[uuid.UUID][]domain.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pm.project_id, u.id, u.first_name, u.last_name, u.email, u.role
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE `+where+`
		ORDER BY pm.added_at, u.id`,
		args...,
	)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	members := make(map[uuid.UUID][]domain.UserSummary)
	for rows.Next() {
		var projectID uuid.UUID
		var member summaryDest
		if err := rows.Scan(append([]any{&projectID}, member.targets()...)...); err != nil {
			return nil, MapError(err)
		}
		members[projectID] = append(members[projectID], member.summary())
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return members, nil
}

func membersOf(members map[uuid.UUID][]domain.UserSummary, projectID uuid.UUID) []domain.UserSummary {
	if m, ok := members[projectID]; ok {
		return m
	}
	return []domain.UserSummary{}
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var status string
	var deadline sql.NullTime
	var owner summaryDest

	dest := []any{&p.ID, &p.Name, &p.Description, &status, &deadline, &p.CreatedAt, &p.UpdatedAt}
	if err := row.Scan(append(dest, owner.targets()...)...); err != nil {
		return nil, err
	}

	p.Status = domain.ProjectStatus(status)
	p.Owner = owner.summary()
	if deadline.Valid {
		d := deadline.Time
		p.Deadline = &d
	}
	return &p, nil
}
