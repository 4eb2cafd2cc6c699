package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/service"
	"github.com/tasksphere/shareme-api/internal/store"
)

func TestNoteHandler_PlaceholderThenSave(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	taskID := uuid.New()
	params := map[string]string{"taskId": taskID.String()}

	var saved *domain.TaskNote
	svc := &mockNoteService{
		getOrEmptyFn: func(_ context.Context, uid, tid uuid.UUID) (*domain.TaskNote, error) {
			if saved != nil {
				return saved, nil
			}
			return domain.EmptyTaskNote(uid, tid, "Write copy"), nil
		},
		hasNoteFn: func(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
			return saved != nil, nil
		},
		saveFn: func(_ context.Context, uid uuid.UUID, in service.NoteInput) (*domain.TaskNote, error) {
			note, err := domain.NewTaskNote(uid, in.TaskID, in.NoteName, in.NoteContent, in.ReminderTags)
			if err != nil {
				return nil, err
			}
			saved = note
			return note, nil
		},
	}
	handler := NewNoteHandler(svc)
	target := "/api/task-notes/task/" + taskID.String()

	rec := httptest.NewRecorder()
	handler.ForTask(rec, newAPIRequest(t, http.MethodGet, target, nil, userID, params))
	require.Equal(t, http.StatusOK, rec.Code)
	var placeholder domain.TaskNote
	decodeBody(t, rec, &placeholder)
	assert.Equal(t, uuid.Nil, placeholder.ID)
	assert.Equal(t, "Write copy", placeholder.TaskTitle)

	rec = httptest.NewRecorder()
	handler.Exists(rec, newAPIRequest(t, http.MethodGet, target+"/exists", nil, userID, params))
	assert.JSONEq(t, `{"exists":false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.Save(rec, newAPIRequest(t, http.MethodPost, "/api/task-notes", map[string]any{
		"task_id":       taskID.String(),
		"note_name":     "Draft",
		"note_content":  "Check the tagline",
		"reminder_tags": []string{" urgent ", "copy"},
	}, userID, nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.TaskNote
	decodeBody(t, rec, &created)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, []string{"urgent", "copy"}, created.ReminderTags)

	rec = httptest.NewRecorder()
	handler.Exists(rec, newAPIRequest(t, http.MethodGet, target+"/exists", nil, userID, params))
	assert.JSONEq(t, `{"exists":true}`, rec.Body.String())
}

func TestNoteHandler_Lists(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var gotTag string
	svc := &mockNoteService{
		listFn: func(context.Context, uuid.UUID) ([]*domain.TaskNote, error) {
			return nil, nil
		},
		tagsFn: func(context.Context, uuid.UUID) ([]string, error) {
			return nil, nil
		},
		listByTagFn: func(_ context.Context, _ uuid.UUID, tag string) ([]*domain.TaskNote, error) {
			gotTag = tag
			return []*domain.TaskNote{{ID: uuid.New(), UserID: userID, NoteName: "Draft", ReminderTags: []string{tag}}}, nil
		},
	}
	handler := NewNoteHandler(svc)

	rec := httptest.NewRecorder()
	handler.List(rec, newAPIRequest(t, http.MethodGet, "/api/task-notes", nil, userID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.Tags(rec, newAPIRequest(t, http.MethodGet, "/api/task-notes/tags", nil, userID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ByTag(rec, newAPIRequest(t, http.MethodGet, "/api/task-notes/tag/urgent", nil, userID,
		map[string]string{"tag": "urgent"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "urgent", gotTag)
	var notes []domain.TaskNote
	decodeBody(t, rec, &notes)
	require.Len(t, notes, 1)
}

func TestNoteHandler_Deletes(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	noteID := uuid.New()
	taskID := uuid.New()

	svc := &mockNoteService{
		deleteFn: func(_ context.Context, _, id uuid.UUID) error {
			if id != noteID {
				return store.ErrNoteNotFound
			}
			return nil
		},
		deleteForTaskFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return service.ErrAccessDenied
		},
	}
	handler := NewNoteHandler(svc)

	rec := httptest.NewRecorder()
	handler.Delete(rec, newAPIRequest(t, http.MethodDelete, "/api/task-notes/"+noteID.String(), nil, userID,
		map[string]string{"id": noteID.String()}))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	other := uuid.New().String()
	rec = httptest.NewRecorder()
	handler.Delete(rec, newAPIRequest(t, http.MethodDelete, "/api/task-notes/"+other, nil, userID,
		map[string]string{"id": other}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.DeleteForTask(rec, newAPIRequest(t, http.MethodDelete, "/api/task-notes/task/"+taskID.String(), nil, userID,
		map[string]string{"taskId": taskID.String()}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
