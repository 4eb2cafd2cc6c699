package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/service"
)

// SignupRequest defines the payload for the signup endpoint.
type SignupRequest struct {
	FirstName string `json:"first_name" validate:"required,max=80"`
	LastName  string `json:"last_name"  validate:"required,max=80"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// AuthResponse defines the successful response for login and token refresh.
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    string       `json:"expires_at"`
	User         UserResponse `json:"user"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProjectRequest is the payload for creating and updating projects.
// Status is ignored on create.
type ProjectRequest struct {
	Name        string     `json:"name"        validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline"`
}

// AddMemberRequest adds the account registered under Email to a project.
type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ProjectResponse is a project with its derived task counts.
type ProjectResponse struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Status          domain.ProjectStatus `json:"status"`
	Owner           domain.UserSummary   `json:"owner"`
	Members         []domain.UserSummary `json:"members"`
	Deadline        *time.Time           `json:"deadline,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	TotalTasks      int64                `json:"total_tasks"`
	CompletedTasks  int64                `json:"completed_tasks"`
	InProgressTasks int64                `json:"in_progress_tasks"`
}

// ProjectOverviewResponse is the dashboard summary of the caller's work.
type ProjectOverviewResponse struct {
	TotalProjects   int64 `json:"total_projects"`
	CompletedTasks  int64 `json:"completed_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
}

// TaskRequest is the payload for creating and fully updating tasks.
// ProjectID is ignored on update.
type TaskRequest struct {
	Title       string     `json:"title"       validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	ProjectID   *uuid.UUID `json:"project_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskStatusRequest is the payload of the status patch.
type TaskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TaskNoteRequest is the payload for saving a note.
type TaskNoteRequest struct {
	TaskID       *uuid.UUID `json:"task_id"`
	NoteName     string     `json:"note_name"`
	NoteContent  string     `json:"note_content"`
	ReminderTags []string   `json:"reminder_tags"`
}

// NoteExistsResponse answers the note existence check.
type NoteExistsResponse struct {
	Exists bool `json:"exists"`
}

// AttachmentResponse is attachment metadata with its download link.
type AttachmentResponse struct {
	ID               uuid.UUID          `json:"id"`
	TaskID           uuid.UUID          `json:"task_id"`
	OriginalFilename string             `json:"original_filename"`
	FileSize         int64              `json:"file_size"`
	ContentType      string             `json:"content_type"`
	UploadedBy       domain.UserSummary `json:"uploaded_by"`
	UploadedAt       time.Time          `json:"uploaded_at"`
	DownloadURL      string             `json:"download_url"`
}

// AttachmentStatsResponse summarises the attachments of a task.
type AttachmentStatsResponse struct {
	AttachmentCount        int64  `json:"attachment_count"`
	TotalFileSize          int64  `json:"total_file_size"`
	TotalFileSizeFormatted string `json:"total_file_size_formatted"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func authTokensToResponse(tokens *service.AuthTokens) AuthResponse {
	return AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt.UTC().Format(time.RFC3339),
		User:         userToResponse(tokens.User),
	}
}

func projectToResponse(p *service.ProjectDetails) ProjectResponse {
	members := p.Members
	if members == nil {
		members = []domain.UserSummary{}
	}
	return ProjectResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Status:          p.Status,
		Owner:           p.Owner,
		Members:         members,
		Deadline:        p.Deadline,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		TotalTasks:      p.TaskCounts.Total,
		CompletedTasks:  p.TaskCounts.Completed,
		InProgressTasks: p.TaskCounts.InProgress,
	}
}

func projectsToResponse(projects []*service.ProjectDetails) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectToResponse(p))
	}
	return out
}

func attachmentToResponse(a *domain.TaskAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:               a.ID,
		TaskID:           a.TaskID,
		OriginalFilename: a.OriginalFilename,
		FileSize:         a.FileSize,
		ContentType:      a.ContentType,
		UploadedBy:       a.UploadedBy,
		UploadedAt:       a.UploadedAt,
		DownloadURL:      "/api/tasks/attachments/" + a.ID.String() + "/download",
	}
}

func attachmentsToResponse(attachments []*domain.TaskAttachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, attachmentToResponse(a))
	}
	return out
}

// nonNil makes empty lists encode as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// FormatFileSize renders size in B, KB, MB or GB with one decimal.
func FormatFileSize(size int64) string {
	const unit = 1024
	switch {
	case size < unit:
		return fmt.Sprintf("%d B", size)
	case size < unit*unit:
		return fmt.Sprintf("%.1f KB", float64(size)/unit)
	case size < unit*unit*unit:
		return fmt.Sprintf("%.1f MB", float64(size)/(unit*unit))
	default:
		return fmt.Sprintf("%.1f GB", float64(size)/(unit*unit*unit))
	}
}
