package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/api/shared"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/service"
)

// TaskHandler handles task requests.
type TaskHandler struct {
	tasks service.TaskService
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Search handles GET /api/tasks with the q, status, priority, projectId,
// sortBy, sortDir, page and size query parameters.
func (h *TaskHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var errs domain.ValidationErrors
	search := service.TaskSearch{
		Text:      q.Get("q"),
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		ProjectID: queryUUID(r, "projectId", &errs),
		SortBy:    q.Get("sortBy"),
		SortDir:   q.Get("sortDir"),
		Page:      queryInt(r, "page", 0, &errs),
		Size:      queryInt(r, "size", domain.DefaultPageSize, &errs),
	}
	if err := errs.Err(); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.tasks.Search(r.Context(), userID, search)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to search tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, page)
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.ProjectID == nil || *req.ProjectID == uuid.Nil {
		HandleAPIError(w, r, domain.NewValidationError("project_id", "is required", domain.ErrValidation), "")
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, taskInput(req))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// Stats handles GET /api/tasks/stats.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.tasks.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load task statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Update handles PUT /api/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, taskID, taskInput(req))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateStatus handles PATCH /api/tasks/{id}/status.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req TaskStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.UpdateStatus(r.Context(), userID, taskID, req.Status)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task status")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func taskInput(req TaskRequest) service.TaskInput {
	in := service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}
	if req.ProjectID != nil {
		in.ProjectID = *req.ProjectID
	}
	return in
}
