package api

import (
	"net/http"

	"github.com/tasksphere/shareme-api/internal/api/shared"
	"github.com/tasksphere/shareme-api/internal/service"
)

// ProjectHandler handles project and membership requests.
type ProjectHandler struct {
	projects service.ProjectService
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projects service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// List handles GET /api/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projects, err := h.projects.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list projects")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, projectsToResponse(projects))
}

// Create handles POST /api/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project, err := h.projects.Create(r.Context(), userID, projectInput(req))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create project")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, projectToResponse(project))
}

// Stats handles GET /api/projects/stats.
func (h *ProjectHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	overview, err := h.projects.Overview(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load project statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProjectOverviewResponse{
		TotalProjects:   overview.TotalProjects,
		CompletedTasks:  overview.CompletedTasks,
		InProgressTasks: overview.InProgressTasks,
	})
}

// Get handles GET /api/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projects.Get(r.Context(), userID, projectID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(project))
}

// Update handles PUT /api/projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project, err := h.projects.Update(r.Context(), userID, projectID, projectInput(req))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update project")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(project))
}

// Delete handles DELETE /api/projects/{id}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.projects.Delete(r.Context(), userID, projectID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete project")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMember handles POST /api/projects/{id}/members.
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project, err := h.projects.AddMember(r.Context(), userID, projectID, req.Email)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add project member")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, projectToResponse(project))
}

// RemoveMember handles DELETE /api/projects/{id}/members/{userId}.
func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, projectID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	memberID, err := getPathUUID(r, "userId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.projects.RemoveMember(r.Context(), userID, projectID, memberID); err != nil {
		HandleAPIError(w, r, err, "Failed to remove project member")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func projectInput(req ProjectRequest) service.ProjectInput {
	return service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Deadline:    req.Deadline,
	}
}
