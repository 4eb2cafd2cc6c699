package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/tasksphere/shareme-api/internal/api/shared"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/service"
)

const (
	// UploadFormField is the multipart field carrying the files.
	UploadFormField = "files"

	// multipartMemory is held in memory before parts spill to temp files.
	multipartMemory = 8 << 20
)

// AttachmentHandler handles task attachment uploads and downloads.
type AttachmentHandler struct {
	attachments    service.AttachmentService
	maxUploadBytes int64
}

// NewAttachmentHandler creates an AttachmentHandler. maxUploadMB bounds the
// size of a whole upload request.
func NewAttachmentHandler(attachments service.AttachmentService, maxUploadMB int64) *AttachmentHandler {
	return &AttachmentHandler{
		attachments:    attachments,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// Upload handles POST /api/tasks/{id}/attachments.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithErrorAndLog(w, r, http.StatusRequestEntityTooLarge, "Upload exceeds the request size limit", err)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart request", err)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.FromContext(r.Context()).Warn("failed to remove multipart temp files", slog.Any("error", err))
		}
	}()

	headers := r.MultipartForm.File[UploadFormField]
	uploads, closeAll, err := openUploads(headers)
	defer closeAll()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart request", err)
		return
	}

	attachments, err := h.attachments.Upload(r.Context(), userID, taskID, uploads)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to upload attachments")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, attachmentsToResponse(attachments))
}

// List handles GET /api/tasks/{id}/attachments.
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	attachments, err := h.attachments.List(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list attachments")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, attachmentsToResponse(attachments))
}

// Stats handles GET /api/tasks/{id}/attachments/stats.
func (h *AttachmentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.attachments.Stats(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load attachment statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AttachmentStatsResponse{
		AttachmentCount:        stats.Count,
		TotalFileSize:          stats.TotalSize,
		TotalFileSizeFormatted: FormatFileSize(stats.TotalSize),
	})
}

// Download handles GET /api/tasks/attachments/{attachmentId}/download.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, attachmentID, ok := handleUserIDAndPathUUID(w, r, "attachmentId")
	if !ok {
		return
	}

	attachment, content, err := h.attachments.Open(r.Context(), userID, attachmentID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to download attachment")
		return
	}
	defer func() { _ = content.Close() }()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = domain.DefaultContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": attachment.OriginalFilename}))
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.FileSize, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		logger.FromContext(r.Context()).Error("failed to stream attachment",
			slog.String("attachment_id", attachmentID.String()),
			slog.Any("error", err))
	}
}

// Delete handles DELETE /api/tasks/attachments/{attachmentId}.
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, attachmentID, ok := handleUserIDAndPathUUID(w, r, "attachmentId")
	if !ok {
		return
	}

	if err := h.attachments.Delete(r.Context(), userID, attachmentID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete attachment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// openUploads opens every part. The returned func closes whatever was opened
// and is safe to call on error.
func openUploads(headers []*multipart.FileHeader) ([]service.Upload, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		files = append(files, f)
		uploads = append(uploads, service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
	}
	return uploads, closeAll, nil
}
