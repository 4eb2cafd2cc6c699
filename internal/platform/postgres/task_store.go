package postgres

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

const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date, t.created_at, t.updated_at,
	       p.id, p.name, p.owner_id,
	       c.id, c.first_name, c.last_name, c.email, c.role,
	       a.id, a.first_name, a.last_name, a.email, a.role
	FROM tasks t
	JOIN projects p ON p.id = t.project_id
	JOIN users c ON c.id = t.creator_id
	LEFT JOIN users a ON a.id = t.assignee_id`

// taskAccessPredicate mirrors domain.HasTaskAccess; $1 is the user ID.
const taskAccessPredicate = `(t.creator_id = $1 OR t.assignee_id = $1 OR p.owner_id = $1)`

const taskStatusCounts = `
	SELECT COUNT(*),
	       COUNT(*) FILTER (WHERE t.status = 'TODO'),
	       COUNT(*) FILTER (WHERE t.status = 'IN_PROGRESS'),
	       COUNT(*) FILTER (WHERE t.status = 'COMPLETED'),
	       COUNT(*) FILTER (WHERE t.status = 'CANCELLED')
	FROM tasks t
	JOIN projects p ON p.id = t.project_id`

// taskOrderExpr whitelists the ORDER BY expression for every sortable field.
// Enum columns sort by rank rather than alphabetically.
var taskOrderExpr = map[domain.TaskSortField]string{
	domain.SortByCreatedAt: "t.created_at",
	domain.SortByUpdatedAt: "t.updated_at",
	domain.SortByDueDate:   "t.due_date",
	domain.SortByTitle:     "LOWER(t.title)",
	domain.SortByPriority:  "CASE t.priority WHEN 'LOW' THEN 1 WHEN 'MEDIUM' THEN 2 WHEN 'HIGH' THEN 3 WHEN 'URGENT' THEN 4 END",
	domain.SortByStatus:    "CASE t.status WHEN 'TODO' THEN 1 WHEN 'IN_PROGRESS' THEN 2 WHEN 'COMPLETED' THEN 3 WHEN 'CANCELLED' THEN 4 END",
}

// PostgresTaskStore implements store.TaskStore on PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a task store.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// WithTx implements store.TaskStore.WithTx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create", slog.String("error", err.Error()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, project_id, creator_id,
		                   assignee_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		task.ID, task.Title, task.Description, string(task.Status), string(task.Priority),
		task.Project.ID, task.Creator.ID, assigneeID(task), task.DueDate,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("project_id", task.Project.ID.String()))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", task.Project.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, taskSelect+` WHERE t.id = $1`, id)
}

// GetByIDForUpdate implements store.TaskStore.GetByIDForUpdate.
func (s *PostgresTaskStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, taskSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id)
}

func (s *PostgresTaskStore) get(ctx context.Context, query string, id uuid.UUID) (*domain.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		mapped := mapEntityError(err, store.ErrTaskNotFound)
		if !errors.Is(mapped, store.ErrTaskNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load task",
				slog.String("error", err.Error()),
				slog.String("task_id", id.String()))
		}
		return nil, mapped
	}
	return task, nil
}

// Update implements store.TaskStore.Update.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	task.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    assignee_id = $5, due_date = $6, updated_at = $7
		WHERE id = $8`,
		task.Title, task.Description, string(task.Status), string(task.Priority),
		assigneeID(task), task.DueDate, task.UpdatedAt, task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// UpdateStatus implements store.TaskStore.UpdateStatus.
func (s *PostgresTaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		return domain.NewValidationError("status", "must be one of TODO, IN_PROGRESS, COMPLETED, CANCELLED",
			domain.ErrInvalidTaskStatus)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Debug("task status updated",
		slog.String("task_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// QueryAccessible implements store.TaskStore.QueryAccessible.
func (s *PostgresTaskStore) QueryAccessible(
	ctx context.Context,
	userID uuid.UUID,
	query domain.TaskQuery,
) ([]*domain.Task, int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildTaskFilter(userID, query.Filter)

	var total int64
	countSQL := `SELECT COUNT(*) FROM tasks t JOIN projects p ON p.id = t.project_id WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}

	tasks := []*domain.Task{}
	if total == 0 {
		return tasks, 0, nil
	}

	pageArgs := append(append([]any{}, args...), query.Page.Size, query.Page.Offset())
	listSQL := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		taskSelect, where, taskOrderBy(query.Sort), len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, listSQL, pageArgs...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	log.Debug("tasks queried",
		slog.String("user_id", userID.String()),
		slog.Int64("total", total),
		slog.Int("returned", len(tasks)))
	return tasks, total, nil
}

// CountAccessibleByStatus implements store.TaskStore.CountAccessibleByStatus.
func (s *PostgresTaskStore) CountAccessibleByStatus(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	return s.countByStatus(ctx, taskStatusCounts+` WHERE `+taskAccessPredicate, userID)
}

// CountParticipatingByStatus implements store.TaskStore.CountParticipatingByStatus.
func (s *PostgresTaskStore) CountParticipatingByStatus(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	return s.countByStatus(ctx, taskStatusCounts+` WHERE (t.creator_id = $1 OR t.assignee_id = $1)`, userID)
}

func (s *PostgresTaskStore) countByStatus(ctx context.Context, query string, userID uuid.UUID) (domain.TaskStats, error) {
	var stats domain.TaskStats
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.Total, &stats.Todo, &stats.InProgress, &stats.Completed, &stats.Cancelled,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count tasks by status",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return domain.TaskStats{}, MapError(err)
	}
	return stats, nil
}

// buildTaskFilter returns the WHERE clause and its arguments for an
// accessible-task search. The user ID is always $1.
func buildTaskFilter(userID uuid.UUID, filter domain.TaskFilter) (string, []any) {
	args := []any{userID}
	conds := []string{taskAccessPredicate}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if text := strings.TrimSpace(filter.Text); text != "" {
		p := next("%" + escapeLike(text) + "%")
		conds = append(conds, fmt.Sprintf(`(t.title ILIKE %s ESCAPE '\' OR t.description ILIKE %s ESCAPE '\')`, p, p))
	}
	if filter.Status != nil {
		conds = append(conds, "t.status = "+next(string(*filter.Status)))
	}
	if filter.Priority != nil {
		conds = append(conds, "t.priority = "+next(string(*filter.Priority)))
	}
	if filter.ProjectID != nil {
		conds = append(conds, "t.project_id = "+next(*filter.ProjectID))
	}

	return strings.Join(conds, " AND "), args
}

// taskOrderBy renders the ORDER BY list. The task ID always breaks ties
// so that consecutive pages neither overlap nor skip rows.
func taskOrderBy(sort domain.TaskSort) string {
	expr, ok := taskOrderExpr[sort.Field]
	if !ok {
		expr = taskOrderExpr[domain.SortByCreatedAt]
	}
	dir := "DESC"
	if sort.Direction == domain.SortAsc {
		dir = "ASC"
	}

	order := expr + " " + dir
	if sort.Field == domain.SortByDueDate {
		order += " NULLS LAST"
	}
	return order + ", t.id " + dir
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func assigneeID(task *domain.Task) any {
	if task.Assignee == nil {
		return nil
	}
	return task.Assignee.ID
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var status, priority string
	var dueDate sql.NullTime
	var creator summaryDest
	var assignee nullSummaryDest

	dest := []any{
		&t.ID, &t.Title, &t.Description, &status, &priority, &dueDate, &t.CreatedAt, &t.UpdatedAt,
		&t.Project.ID, &t.Project.Name, &t.Project.OwnerID,
	}
	dest = append(dest, creator.targets()...)
	dest = append(dest, assignee.targets()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.Creator = creator.summary()
	t.Assignee = assignee.summary()
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	return &t, nil
}
