package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tasksphere/shareme-api/internal/api/shared"
	"github.com/tasksphere/shareme-api/internal/service"
)

// NoteHandler handles the caller's private task notes.
type NoteHandler struct {
	notes service.NoteService
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(notes service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// List handles GET /api/task-notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notes, err := h.notes.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notes")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(notes))
}

// Save handles POST /api/task-notes.
func (h *NoteHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req TaskNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.notes.Save(r.Context(), userID, service.NoteInput{
		TaskID:       req.TaskID,
		NoteName:     req.NoteName,
		NoteContent:  req.NoteContent,
		ReminderTags: req.ReminderTags,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save note")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, note)
}

// Tags handles GET /api/task-notes/tags.
func (h *NoteHandler) Tags(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	tags, err := h.notes.Tags(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tags")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(tags))
}

// ByTag handles GET /api/task-notes/tag/{tag}.
func (h *NoteHandler) ByTag(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notes, err := h.notes.ListByTag(r.Context(), userID, chi.URLParam(r, "tag"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notes")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(notes))
}

// ForTask handles GET /api/task-notes/task/{taskId}. A task without a note
// answers with an unsaved placeholder.
func (h *NoteHandler) ForTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskId")
	if !ok {
		return
	}

	note, err := h.notes.GetOrEmpty(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, note)
}

// Exists handles GET /api/task-notes/task/{taskId}/exists.
func (h *NoteHandler) Exists(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskId")
	if !ok {
		return
	}

	exists, err := h.notes.HasNote(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NoteExistsResponse{Exists: exists})
}

// DeleteForTask handles DELETE /api/task-notes/task/{taskId}.
func (h *NoteHandler) DeleteForTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskId")
	if !ok {
		return
	}

	if err := h.notes.DeleteForTask(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete notes")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/task-notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, noteID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notes.Delete(r.Context(), userID, noteID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete note")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
