package mocks

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
)

// FakeHashPrefix marks passwords "hashed" by the in-memory user store.
const FakeHashPrefix = "hashed:"

// FakeHash returns the hash the in-memory user store records for password.
func FakeHash(password string) string {
	return FakeHashPrefix + password
}

// Memory is the shared backing state of the in-memory stores. Stores built
// on the same Memory see each other's writes, like tables in one database.
type Memory struct {
	mu          sync.Mutex
	Users       map[uuid.UUID]*domain.User
	Projects    map[uuid.UUID]*domain.Project
	Tasks       map[uuid.UUID]*domain.Task
	Notes       []*domain.TaskNote
	Attachments map[uuid.UUID]*domain.TaskAttachment
}

// NewMemory creates empty backing state.
func NewMemory() *Memory {
	return &Memory{
		Users:       make(map[uuid.UUID]*domain.User),
		Projects:    make(map[uuid.UUID]*domain.Project),
		Tasks:       make(map[uuid.UUID]*domain.Task),
		Attachments: make(map[uuid.UUID]*domain.TaskAttachment),
	}
}

// AddUser registers a user with password "password123" and returns it.
// It panics on invalid input; it is meant for test setup.
func (m *Memory) AddUser(firstName, lastName, email string) *domain.User {
	user, err := domain.NewUser(firstName, lastName, email, "password123")
	if err != nil {
		panic(err)
	}
	user.HashedPassword = FakeHash(user.Password)
	user.Password = ""

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[user.ID] = user
	cp := *user
	return &cp
}

func (m *Memory) userByEmail(email string) *domain.User {
	email = domain.NormalizeEmail(email)
	for _, u := range m.Users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// deleteTasks removes the matching tasks and their attachments. Notes
// linked to a removed task lose the link, as with ON DELETE SET NULL.
func (m *Memory) deleteTasks(match func(*domain.Task) bool) {
	for id, t := range m.Tasks {
		if !match(t) {
			continue
		}
		delete(m.Tasks, id)
		for aid, a := range m.Attachments {
			if a.TaskID == id {
				delete(m.Attachments, aid)
			}
		}
		for _, n := range m.Notes {
			if n.TaskID != nil && *n.TaskID == id {
				n.TaskID = nil
			}
		}
	}
}

func cloneProject(p *domain.Project) *domain.Project {
	cp := *p
	cp.Members = append([]domain.UserSummary{}, p.Members...)
	return &cp
}

func cloneTask(t *domain.Task) *domain.Task {
	cp := *t
	if t.Assignee != nil {
		a := *t.Assignee
		cp.Assignee = &a
	}
	return &cp
}

func cloneNote(n *domain.TaskNote) *domain.TaskNote {
	cp := *n
	cp.ReminderTags = append([]string{}, n.ReminderTags...)
	return &cp
}

// sortTasks orders tasks the way the SQL query engine does: by the
// requested field, nil due dates last, ties broken by id in the same direction.
func sortTasks(tasks []*domain.Task, s domain.TaskSort) {
	compare := func(a, b *domain.Task) int {
		switch s.Field {
		case domain.SortByUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case domain.SortByTitle:
			return strings.Compare(a.Title, b.Title)
		case domain.SortByPriority:
			return slices.Index(domain.TaskPriorities, a.Priority) - slices.Index(domain.TaskPriorities, b.Priority)
		case domain.SortByStatus:
			return slices.Index(domain.TaskStatuses, a.Status) - slices.Index(domain.TaskStatuses, b.Status)
		case domain.SortByDueDate:
			if a.DueDate == nil || b.DueDate == nil {
				return 0
			}
			return a.DueDate.Compare(*b.DueDate)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if s.Field == domain.SortByDueDate && (a.DueDate == nil) != (b.DueDate == nil) {
			return b.DueDate == nil
		}
		c := compare(a, b)
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		if s.Direction == domain.SortDesc {
			c = -c
		}
		return c < 0
	})
}
