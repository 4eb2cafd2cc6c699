package service_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tasksphere/shareme-api/internal/config"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/mocks"
	"github.com/tasksphere/shareme-api/internal/service"
)

// fixture wires every service onto one in-memory backing store and a
// sqlmock database that only sees transaction boundaries.
type fixture struct {
	mem         *mocks.Memory
	db          *sql.DB
	sql         sqlmock.Sqlmock
	users       *mocks.MockUserStore
	projects    *mocks.MockProjectStore
	tasks       *mocks.MockTaskStore
	notes       *mocks.MockNoteStore
	attachments *mocks.MockAttachmentStore
	files       *mocks.MockFileStore
	resets      *mocks.MockResetTokenStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := mocks.NewMemory()
	db, sqlMock := mocks.NewTxDB(t)
	return &fixture{
		mem:         mem,
		db:          db,
		sql:         sqlMock,
		users:       mocks.NewMockUserStore(mem),
		projects:    mocks.NewMockProjectStore(mem),
		tasks:       mocks.NewMockTaskStore(mem),
		notes:       mocks.NewMockNoteStore(mem),
		attachments: mocks.NewMockAttachmentStore(mem),
		files:       mocks.NewMockFileStore(),
		resets:      mocks.NewMockResetTokenStore(),
	}
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   strings.Repeat("s", 32),
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
		BCryptCost:                  4,
		ResetTokenTTLMinutes:        15,
		ResetURLBase:                "http://localhost:3000/reset-password",
	}
}

func (f *fixture) projectService(t *testing.T) service.ProjectService {
	t.Helper()
	svc, err := service.NewProjectService(f.db, f.projects, f.tasks, f.users, f.attachments, f.files, nil)
	require.NoError(t, err)
	return svc
}

func (f *fixture) taskService(t *testing.T) service.TaskService {
	t.Helper()
	svc, err := service.NewTaskService(f.db, f.tasks, f.projects, f.users, f.attachments, f.files, nil)
	require.NoError(t, err)
	return svc
}

func (f *fixture) noteService(t *testing.T) service.NoteService {
	t.Helper()
	svc, err := service.NewNoteService(f.db, f.notes, f.tasks, nil)
	require.NoError(t, err)
	return svc
}

func (f *fixture) attachmentService(t *testing.T) service.AttachmentService {
	t.Helper()
	svc, err := service.NewAttachmentService(f.db, f.attachments, f.tasks, f.users, f.files, nil)
	require.NoError(t, err)
	return svc
}

// addProject stores a project directly, bypassing the service.
func (f *fixture) addProject(t *testing.T, owner *domain.User, name string, members ...*domain.User) *domain.Project {
	t.Helper()

	project, err := domain.NewProject(owner.Summary(), name, "", nil)
	require.NoError(t, err)
	require.NoError(t, f.projects.Create(context.Background(), project))
	for _, m := range members {
		require.NoError(t, f.projects.AddMember(context.Background(), project.ID, m.ID))
	}
	return project
}

// addTask stores a task directly, bypassing the service. createdAt orders
// tasks deterministically for paging tests.
func (f *fixture) addTask(
	t *testing.T,
	project *domain.Project,
	creator, assignee *domain.User,
	title string,
	status domain.TaskStatus,
	createdAt time.Time,
) *domain.Task {
	t.Helper()

	var summary *domain.UserSummary
	if assignee != nil {
		s := assignee.Summary()
		summary = &s
	}
	ref := domain.ProjectRef{ID: project.ID, Name: project.Name, OwnerID: project.Owner.ID}
	task, err := domain.NewTask(ref, creator.Summary(), title, "", status, domain.TaskPriorityMedium, summary, nil)
	require.NoError(t, err)
	task.CreatedAt = createdAt
	task.UpdatedAt = createdAt
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

var baseTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

func taskIDs(tasks []*domain.Task) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
