package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tasksphere/shareme-api/internal/api/shared"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/service"
)

var errNotStubbed = errors.New("mock method not stubbed")

type mockAuthService struct {
	signupFn         func(ctx context.Context, in service.SignupInput) (*domain.User, error)
	loginFn          func(ctx context.Context, email, password string) (*service.AuthTokens, error)
	refreshTokenFn   func(ctx context.Context, refreshToken string) (*service.AuthTokens, error)
	currentUserFn    func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	forgotPasswordFn func(ctx context.Context, email string) error
	resetPasswordFn  func(ctx context.Context, token, newPassword string) error
}

func (m *mockAuthService) Signup(ctx context.Context, in service.SignupInput) (*domain.User, error) {
	if m.signupFn == nil {
		return nil, errNotStubbed
	}
	return m.signupFn(ctx, in)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.AuthTokens, error) {
	if m.loginFn == nil {
		return nil, errNotStubbed
	}
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*service.AuthTokens, error) {
	if m.refreshTokenFn == nil {
		return nil, errNotStubbed
	}
	return m.refreshTokenFn(ctx, refreshToken)
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.currentUserFn == nil {
		return nil, errNotStubbed
	}
	return m.currentUserFn(ctx, userID)
}

func (m *mockAuthService) ForgotPassword(ctx context.Context, email string) error {
	if m.forgotPasswordFn == nil {
		return errNotStubbed
	}
	return m.forgotPasswordFn(ctx, email)
}

func (m *mockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.resetPasswordFn == nil {
		return errNotStubbed
	}
	return m.resetPasswordFn(ctx, token, newPassword)
}

type mockProjectService struct {
	listFn         func(ctx context.Context, userID uuid.UUID) ([]*service.ProjectDetails, error)
	createFn       func(ctx context.Context, userID uuid.UUID, in service.ProjectInput) (*service.ProjectDetails, error)
	getFn          func(ctx context.Context, userID, projectID uuid.UUID) (*service.ProjectDetails, error)
	updateFn       func(ctx context.Context, userID, projectID uuid.UUID, in service.ProjectInput) (*service.ProjectDetails, error)
	deleteFn       func(ctx context.Context, userID, projectID uuid.UUID) error
	addMemberFn    func(ctx context.Context, userID, projectID uuid.UUID, email string) (*service.ProjectDetails, error)
	removeMemberFn func(ctx context.Context, userID, projectID, memberID uuid.UUID) error
	overviewFn     func(ctx context.Context, userID uuid.UUID) (*service.ProjectOverview, error)
}

func (m *mockProjectService) List(ctx context.Context, userID uuid.UUID) ([]*service.ProjectDetails, error) {
	if m.listFn == nil {
		return nil, errNotStubbed
	}
	return m.listFn(ctx, userID)
}

func (m *mockProjectService) Create(
	ctx context.Context,
	userID uuid.UUID,
	in service.ProjectInput,
) (*service.ProjectDetails, error) {
	if m.createFn == nil {
		return nil, errNotStubbed
	}
	return m.createFn(ctx, userID, in)
}

func (m *mockProjectService) Get(ctx context.Context, userID, projectID uuid.UUID) (*service.ProjectDetails, error) {
	if m.getFn == nil {
		return nil, errNotStubbed
	}
	return m.getFn(ctx, userID, projectID)
}

func (m *mockProjectService) Update(
	ctx context.Context,
	userID, projectID uuid.UUID,
	in service.ProjectInput,
) (*service.ProjectDetails, error) {
	if m.updateFn == nil {
		return nil, errNotStubbed
	}
	return m.updateFn(ctx, userID, projectID, in)
}

func (m *mockProjectService) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	if m.deleteFn == nil {
		return errNotStubbed
	}
	return m.deleteFn(ctx, userID, projectID)
}

func (m *mockProjectService) AddMember(
	ctx context.Context,
	userID, projectID uuid.UUID,
	email string,
) (*service.ProjectDetails, error) {
	if m.addMemberFn == nil {
		return nil, errNotStubbed
	}
	return m.addMemberFn(ctx, userID, projectID, email)
}

func (m *mockProjectService) RemoveMember(ctx context.Context, userID, projectID, memberID uuid.UUID) error {
	if m.removeMemberFn == nil {
		return errNotStubbed
	}
	return m.removeMemberFn(ctx, userID, projectID, memberID)
}

func (m *mockProjectService) Overview(ctx context.Context, userID uuid.UUID) (*service.ProjectOverview, error) {
	if m.overviewFn == nil {
		return nil, errNotStubbed
	}
	return m.overviewFn(ctx, userID)
}

type mockTaskService struct {
	searchFn       func(ctx context.Context, userID uuid.UUID, search service.TaskSearch) (*domain.TaskPage, error)
	getFn          func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	createFn       func(ctx context.Context, userID uuid.UUID, in service.TaskInput) (*domain.Task, error)
	updateFn       func(ctx context.Context, userID, taskID uuid.UUID, in service.TaskInput) (*domain.Task, error)
	updateStatusFn func(ctx context.Context, userID, taskID uuid.UUID, status string) (*domain.Task, error)
	deleteFn       func(ctx context.Context, userID, taskID uuid.UUID) error
	statsFn        func(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error)
}

func (m *mockTaskService) Search(
	ctx context.Context,
	userID uuid.UUID,
	search service.TaskSearch,
) (*domain.TaskPage, error) {
	if m.searchFn == nil {
		return nil, errNotStubbed
	}
	return m.searchFn(ctx, userID, search)
}

func (m *mockTaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.getFn == nil {
		return nil, errNotStubbed
	}
	return m.getFn(ctx, userID, taskID)
}

func (m *mockTaskService) Create(ctx context.Context, userID uuid.UUID, in service.TaskInput) (*domain.Task, error) {
	if m.createFn == nil {
		return nil, errNotStubbed
	}
	return m.createFn(ctx, userID, in)
}

func (m *mockTaskService) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	in service.TaskInput,
) (*domain.Task, error) {
	if m.updateFn == nil {
		return nil, errNotStubbed
	}
	return m.updateFn(ctx, userID, taskID, in)
}

func (m *mockTaskService) UpdateStatus(
	ctx context.Context,
	userID, taskID uuid.UUID,
	status string,
) (*domain.Task, error) {
	if m.updateStatusFn == nil {
		return nil, errNotStubbed
	}
	return m.updateStatusFn(ctx, userID, taskID, status)
}

func (m *mockTaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if m.deleteFn == nil {
		return errNotStubbed
	}
	return m.deleteFn(ctx, userID, taskID)
}

func (m *mockTaskService) Stats(ctx context.Context, userID uuid.UUID) (domain.TaskStats, error) {
	if m.statsFn == nil {
		return domain.TaskStats{}, errNotStubbed
	}
	return m.statsFn(ctx, userID)
}

type mockNoteService struct {
	getOrEmptyFn    func(ctx context.Context, userID, taskID uuid.UUID) (*domain.TaskNote, error)
	saveFn          func(ctx context.Context, userID uuid.UUID, in service.NoteInput) (*domain.TaskNote, error)
	deleteForTaskFn func(ctx context.Context, userID, taskID uuid.UUID) error
	deleteFn        func(ctx context.Context, userID, noteID uuid.UUID) error
	listFn          func(ctx context.Context, userID uuid.UUID) ([]*domain.TaskNote, error)
	listByTagFn     func(ctx context.Context, userID uuid.UUID, tag string) ([]*domain.TaskNote, error)
	tagsFn          func(ctx context.Context, userID uuid.UUID) ([]string, error)
	hasNoteFn       func(ctx context.Context, userID, taskID uuid.UUID) (bool, error)
}

func (m *mockNoteService) GetOrEmpty(ctx context.Context, userID, taskID uuid.UUID) (*domain.TaskNote, error) {
	if m.getOrEmptyFn == nil {
		return nil, errNotStubbed
	}
	return m.getOrEmptyFn(ctx, userID, taskID)
}

func (m *mockNoteService) Save(ctx context.Context, userID uuid.UUID, in service.NoteInput) (*domain.TaskNote, error) {
	if m.saveFn == nil {
		return nil, errNotStubbed
	}
	return m.saveFn(ctx, userID, in)
}

func (m *mockNoteService) DeleteForTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if m.deleteForTaskFn == nil {
		return errNotStubbed
	}
	return m.deleteForTaskFn(ctx, userID, taskID)
}

func (m *mockNoteService) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	if m.deleteFn == nil {
		return errNotStubbed
	}
	return m.deleteFn(ctx, userID, noteID)
}

func (m *mockNoteService) List(ctx context.Context, userID uuid.UUID) ([]*domain.TaskNote, error) {
	if m.listFn == nil {
		return nil, errNotStubbed
	}
	return m.listFn(ctx, userID)
}

func (m *mockNoteService) ListByTag(ctx context.Context, userID uuid.UUID, tag string) ([]*domain.TaskNote, error) {
	if m.listByTagFn == nil {
		return nil, errNotStubbed
	}
	return m.listByTagFn(ctx, userID, tag)
}

func (m *mockNoteService) Tags(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if m.tagsFn == nil {
		return nil, errNotStubbed
	}
	return m.tagsFn(ctx, userID)
}

func (m *mockNoteService) HasNote(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	if m.hasNoteFn == nil {
		return false, errNotStubbed
	}
	return m.hasNoteFn(ctx, userID, taskID)
}

type mockAttachmentService struct {
	uploadFn func(ctx context.Context, userID, taskID uuid.UUID, files []service.Upload) ([]*domain.TaskAttachment, error)
	listFn   func(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.TaskAttachment, error)
	openFn   func(ctx context.Context, userID, attachmentID uuid.UUID) (*domain.TaskAttachment, io.ReadCloser, error)
	deleteFn func(ctx context.Context, userID, attachmentID uuid.UUID) error
	statsFn  func(ctx context.Context, userID, taskID uuid.UUID) (domain.AttachmentStats, error)
}

func (m *mockAttachmentService) Upload(
	ctx context.Context,
	userID, taskID uuid.UUID,
	files []service.Upload,
) ([]*domain.TaskAttachment, error) {
	if m.uploadFn == nil {
		return nil, errNotStubbed
	}
	return m.uploadFn(ctx, userID, taskID, files)
}

func (m *mockAttachmentService) List(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.TaskAttachment, error) {
	if m.listFn == nil {
		return nil, errNotStubbed
	}
	return m.listFn(ctx, userID, taskID)
}

func (m *mockAttachmentService) Open(
	ctx context.Context,
	userID, attachmentID uuid.UUID,
) (*domain.TaskAttachment, io.ReadCloser, error) {
	if m.openFn == nil {
		return nil, nil, errNotStubbed
	}
	return m.openFn(ctx, userID, attachmentID)
}

func (m *mockAttachmentService) Delete(ctx context.Context, userID, attachmentID uuid.UUID) error {
	if m.deleteFn == nil {
		return errNotStubbed
	}
	return m.deleteFn(ctx, userID, attachmentID)
}

func (m *mockAttachmentService) Stats(
	ctx context.Context,
	userID, taskID uuid.UUID,
) (domain.AttachmentStats, error) {
	if m.statsFn == nil {
		return domain.AttachmentStats{}, errNotStubbed
	}
	return m.statsFn(ctx, userID, taskID)
}

// newAPIRequest builds a request as the router would hand it to a handler:
// userID in context (skipped when uuid.Nil) and params as chi URL params.
func newAPIRequest(
	t *testing.T,
	method, target string,
	body any,
	userID uuid.UUID,
	params map[string]string,
) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := sonic.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != uuid.Nil {
		ctx = shared.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

// decodeBody decodes a recorded JSON response into out.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
}
