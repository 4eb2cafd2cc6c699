package service_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/mocks"
	"github.com/tasksphere/shareme-api/internal/service"
	"github.com/tasksphere/shareme-api/internal/store"
)

func TestTaskService_AssigneeScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	ctx := context.Background()

	alice := f.mem.AddUser("Alice", "Owner", "alice@example.com")
	bob := f.mem.AddUser("Bob", "Assignee", "bob@example.com")
	project := f.addProject(t, alice, "Launch")

	mocks.ExpectCommit(f.sql)
	task, err := svc.Create(ctx, alice.ID, service.TaskInput{
		Title: "Write press release", ProjectID: project.ID, AssigneeID: &bob.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, task.Assignee)
	assert.Equal(t, bob.ID, task.Assignee.ID)

	mocks.ExpectCommit(f.sql)
	patched, err := svc.UpdateStatus(ctx, bob.ID, task.ID, "in_progress")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, patched.Status)

	mocks.ExpectRollback(f.sql)
	_, err = svc.Update(ctx, bob.ID, task.ID, service.TaskInput{Title: "Rewritten"})
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	mocks.ExpectRollback(f.sql)
	err = svc.Delete(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	stored, err := svc.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write press release", stored.Title)
	assert.Equal(t, domain.TaskStatusInProgress, stored.Status)
}

func TestTaskService_Create(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	ctx := context.Background()

	owner := f.mem.AddUser("Alice", "Owner", "alice@example.com")
	member := f.mem.AddUser("Bob", "Member", "bob@example.com")
	project := f.addProject(t, owner, "Launch", member)
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("defaults status and priority", func(t *testing.T) {
		mocks.ExpectCommit(f.sql)
		task, err := svc.Create(ctx, owner.ID, service.TaskInput{
			Title: "Book venue", Description: " near the station ", ProjectID: project.ID, DueDate: &due,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusTodo, task.Status)
		assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
		assert.Equal(t, "near the station", task.Description)
		assert.Equal(t, project.Name, task.Project.Name)
		assert.Equal(t, owner.ID, task.Project.OwnerID)
		assert.Equal(t, owner.ID, task.Creator.ID)
		assert.Nil(t, task.Assignee)
	})

	t.Run("members cannot create tasks", func(t *testing.T) {
		mocks.ExpectRollback(f.sql)
		_, err := svc.Create(ctx, member.ID, service.TaskInput{Title: "Sneaky", ProjectID: project.ID})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("unknown project", func(t *testing.T) {
		mocks.ExpectRollback(f.sql)
		_, err := svc.Create(ctx, owner.ID, service.TaskInput{Title: "Lost", ProjectID: uuid.New()})
		assert.ErrorIs(t, err, store.ErrProjectNotFound)
	})

	t.Run("unknown assignee", func(t *testing.T) {
		mocks.ExpectRollback(f.sql)
		_, err := svc.Create(ctx, owner.ID, service.TaskInput{
			Title: "Delegate", ProjectID: project.ID, AssigneeID: ptr(uuid.New()),
		})
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("invalid enums are rejected before any transaction", func(t *testing.T) {
		_, err := svc.Create(ctx, owner.ID, service.TaskInput{
			Title: "Bad", ProjectID: project.ID, Status: "DONE", Priority: "critical",
		})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorIs(t, err, domain.ErrInvalidTaskStatus)
		assert.ErrorIs(t, err, domain.ErrInvalidTaskPriority)
		fields := domain.ValidationFields(err)
		assert.Contains(t, fields, "status")
		assert.Contains(t, fields, "priority")
	})

	t.Run("short title", func(t *testing.T) {
		mocks.ExpectRollback(f.sql)
		_, err := svc.Create(ctx, owner.ID, service.TaskInput{Title: "ab", ProjectID: project.ID})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestTaskService_UpdateReplacesFields(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	ctx := context.Background()

	owner := f.mem.AddUser("Alice", "Owner", "alice@example.com")
	creator := f.mem.AddUser("Carol", "Creator", "carol@example.com")
	assignee := f.mem.AddUser("Bob", "Assignee", "bob@example.com")
	project := f.addProject(t, owner, "Launch")
	task := f.addTask(t, project, creator, assignee, "Draft agenda", domain.TaskStatusInProgress, baseTime)

	mocks.ExpectCommit(f.sql)
	updated, err := svc.Update(ctx, creator.ID, task.ID, service.TaskInput{
		Title:    "Final agenda",
		Priority: "urgent",
	})
	require.NoError(t, err)
	assert.Equal(t, "Final agenda", updated.Title)
	assert.Equal(t, domain.TaskStatusTodo, updated.Status, "blank status resets to the default")
	assert.Equal(t, domain.TaskPriorityUrgent, updated.Priority)
	assert.Nil(t, updated.Assignee, "omitted assignee is cleared")
	assert.Equal(t, creator.ID, updated.Creator.ID)
	assert.Equal(t, project.ID, updated.Project.ID)

	mocks.ExpectCommit(f.sql)
	updated, err = svc.Update(ctx, owner.ID, task.ID, service.TaskInput{
		Title:      "Final agenda",
		AssigneeID: &assignee.ID,
		ProjectID:  uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, assignee.ID, updated.Assignee.ID)
	assert.Equal(t, project.ID, updated.Project.ID, "tasks never move between projects")

	mocks.ExpectRollback(f.sql)
	_, err = svc.Update(ctx, owner.ID, uuid.New(), service.TaskInput{Title: "Ghost"})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	mocks.ExpectRollback(f.sql)
	_, err = svc.Update(ctx, owner.ID, task.ID, service.TaskInput{Title: "ab"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "must be between 3 and 200 characters", domain.ValidationFields(err)["title"])

	stored, err := svc.Get(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final agenda", stored.Title)
}

func TestTaskService_UpdateStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	ctx := context.Background()

	owner := f.mem.AddUser("Alice", "Owner", "alice@example.com")
	stranger := f.mem.AddUser("Eve", "Stranger", "eve@example.com")
	project := f.addProject(t, owner, "Launch")
	task := f.addTask(t, project, owner, nil, "Draft agenda", domain.TaskStatusTodo, baseTime)

	_, err := svc.UpdateStatus(ctx, owner.ID, task.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTaskStatus)

	_, err = svc.UpdateStatus(ctx, owner.ID, task.ID, "DONE")
	assert.ErrorIs(t, err, domain.ErrInvalidTaskStatus)

	mocks.ExpectRollback(f.sql)
	_, err = svc.UpdateStatus(ctx, stranger.ID, task.ID, "COMPLETED")
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	// No transition graph: any status may follow any other.
	for _, status := range []string{"COMPLETED", "todo", "Cancelled", "IN_PROGRESS"} {
		mocks.ExpectCommit(f.sql)
		_, err := svc.UpdateStatus(ctx, owner.ID, task.ID, status)
		require.NoError(t, err, status)
	}
}

func TestTaskService_DeleteRemovesAttachments(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	ctx := context.Background()

	owner := f.mem.AddUser("Alice", "Owner", "alice@example.com")
	project := f.addProject(t, owner, "Launch")
	task := f.addTask(t, project, owner, nil, "Draft agenda", domain.TaskStatusTodo, baseTime)

	f.files.Blobs["agenda.pdf"] = []byte("pdf")
	require.NoError(t, f.attachments.Create(ctx,
		domain.NewTaskAttachment(task.ID, owner.Summary(), "agenda.pdf", "agenda.pdf", "mem://agenda.pdf", "", 3)))

	mocks.ExpectCommit(f.sql)
	require.NoError(t, svc.Delete(ctx, owner.ID, task.ID))

	_, err := f.tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.Empty(t, f.mem.Attachments)
	assert.Zero(t, f.files.Count())
}

func TestTaskService_SearchStatusFilter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	ctx := context.Background()

	owner := f.mem.AddUser("Alice", "Owner", "alice@example.com")
	project := f.addProject(t, owner, "Launch")

	statuses := []domain.TaskStatus{
		domain.TaskStatusCompleted, domain.TaskStatusTodo, domain.TaskStatusCompleted,
		domain.TaskStatusInProgress, domain.TaskStatusCompleted, domain.TaskStatusCancelled,
	}
	var completed []uuid.UUID
	for i, status := range statuses {
		task := f.addTask(t, project, owner, nil, "Task number "+string(rune('A'+i)), status, baseTime.Add(time.Duration(i)*time.Minute))
		if status == domain.TaskStatusCompleted {
			completed = append(completed, task.ID)
		}
	}

	page, err := svc.Search(ctx, owner.ID, service.TaskSearch{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.ElementsMatch(t, completed, taskIDs(page.Items))
	for _, task := range page.Items {
		assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	}

	_, err = svc.Search(ctx, owner.ID, service.TaskSearch{Status: "finished"})
	assert.ErrorIs(t, err, domain.ErrInvalidTaskStatus)

	_, err = svc.Search(ctx, owner.ID, service.TaskSearch{Priority: "whenever"})
	assert.ErrorIs(t, err, domain.ErrInvalidTaskPriority)

	_, err = svc.Search(ctx, uuid.New(), service.TaskSearch{})
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestTaskService_SearchPagination(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	ctx := context.Background()

	owner := f.mem.AddUser("Alice", "Owner", "alice@example.com")
	project := f.addProject(t, owner, "Launch")
	for i := 0; i < 5; i++ {
		// Equal timestamps make the id tie-breaker decide the order.
		f.addTask(t, project, owner, nil, "Same time task", domain.TaskStatusTodo, baseTime)
	}

	seen := map[uuid.UUID]bool{}
	var sizes []int
	for page := 0; page < 3; page++ {
		result, err := svc.Search(ctx, owner.ID, service.TaskSearch{Page: page, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), result.TotalCount)
		assert.Equal(t, 3, result.TotalPages)
		sizes = append(sizes, len(result.Items))
		for _, task := range result.Items {
			assert.False(t, seen[task.ID], "duplicate task across pages")
			seen[task.ID] = true
		}
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Len(t, seen, 5)

	_, err := svc.Search(ctx, owner.ID, service.TaskSearch{Page: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Search(ctx, owner.ID, service.TaskSearch{Page: math.MaxInt64 / 50, Size: 100})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "is too large", domain.ValidationFields(err)["page"])
}

func TestTaskService_SearchAccessAndFilters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)
	ctx := context.Background()

	alice := f.mem.AddUser("Alice", "Owner", "alice@example.com")
	bob := f.mem.AddUser("Bob", "Member", "bob@example.com")
	launch := f.addProject(t, alice, "Launch", bob)
	website := f.addProject(t, alice, "Website")

	assigned := f.addTask(t, launch, alice, bob, "Print flyers", domain.TaskStatusTodo, baseTime)
	f.addTask(t, launch, alice, nil, "Order banners", domain.TaskStatusTodo, baseTime.Add(time.Minute))
	web := f.addTask(t, website, alice, nil, "Flyer landing page", domain.TaskStatusTodo, baseTime.Add(2*time.Minute))

	// Membership alone does not expose tasks.
	page, err := svc.Search(ctx, bob.ID, service.TaskSearch{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{assigned.ID}, taskIDs(page.Items))

	page, err = svc.Search(ctx, alice.ID, service.TaskSearch{Text: "FLYER", SortBy: "title", SortDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{web.ID, assigned.ID}, taskIDs(page.Items))

	page, err = svc.Search(ctx, alice.ID, service.TaskSearch{ProjectID: &website.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{web.ID}, taskIDs(page.Items))

	page, err = svc.Search(ctx, alice.ID, service.TaskSearch{SortBy: "bogus"})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, web.ID, page.Items[0].ID, "unknown sort field falls back to newest first")
}

func TestTaskService_SearchPassesNormalizedQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	owner := f.mem.AddUser("Alice", "Owner", "alice@example.com")

	var got domain.TaskQuery
	f.tasks.QueryAccessibleFn = func(_ context.Context, userID uuid.UUID, q domain.TaskQuery) ([]*domain.Task, int64, error) {
		assert.Equal(t, owner.ID, userID)
		got = q
		return nil, 0, nil
	}
	svc := f.taskService(t)

	page, err := svc.Search(context.Background(), owner.ID, service.TaskSearch{
		Text: "  venue ", Priority: "high", SortBy: "DueDate", SortDir: "ASC", Page: 1, Size: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, "venue", got.Filter.Text)
	assert.Nil(t, got.Filter.Status)
	require.NotNil(t, got.Filter.Priority)
	assert.Equal(t, domain.TaskPriorityHigh, *got.Filter.Priority)
	assert.Equal(t, domain.TaskSort{Field: domain.SortByDueDate, Direction: domain.SortAsc}, got.Sort)
	assert.Equal(t, domain.PageRequest{Page: 1, Size: domain.MaxPageSize}, got.Page)

	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.TotalPages)
}

func TestTaskService_Stats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := f.taskService(t)

	owner := f.mem.AddUser("Alice", "Owner", "alice@example.com")
	project := f.addProject(t, owner, "Launch")
	f.addTask(t, project, owner, nil, "One", domain.TaskStatusTodo, baseTime)
	f.addTask(t, project, owner, nil, "Two", domain.TaskStatusTodo, baseTime)
	f.addTask(t, project, owner, nil, "Three", domain.TaskStatusCompleted, baseTime)
	f.addTask(t, project, owner, nil, "Four", domain.TaskStatusCancelled, baseTime)

	stats, err := svc.Stats(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStats{Total: 4, Todo: 2, Completed: 1, Cancelled: 1}, stats)
}
