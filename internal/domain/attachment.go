package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxAttachmentSize is the largest accepted upload: 50MB.
	MaxAttachmentSize int64 = 50 * 1024 * 1024

	// DefaultContentType is recorded when the client sends none.
	DefaultContentType = "application/octet-stream"
)

// allowedAttachmentExtensions is the upload allow-list, lower case without the dot.
var allowedAttachmentExtensions = map[string]struct{}{
	"pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {}, "txt": {},
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {}, "svg": {},
	"mp4": {}, "avi": {}, "mov": {}, "wmv": {}, "flv": {}, "webm": {},
}

// TaskAttachment is the metadata of a file uploaded to a task.
// The blob itself lives in the file store under StoredFilename.
type TaskAttachment struct {
	ID               uuid.UUID   `json:"id"`
	TaskID           uuid.UUID   `json:"task_id"`
	OriginalFilename string      `json:"original_filename"`
	StoredFilename   string      `json:"stored_filename"`
	FilePath         string      `json:"-"`
	FileSize         int64       `json:"file_size"`
	ContentType      string      `json:"content_type"`
	UploadedBy       UserSummary `json:"uploaded_by"`
	UploadedAt       time.Time   `json:"uploaded_at"`
}

// AttachmentStats summarises the attachments of one task.
type AttachmentStats struct {
	Count     int64 `json:"attachment_count"`
	TotalSize int64 `json:"total_size"`
}

// IsAllowedExtension reports whether ext (with or without leading dot) may be uploaded.
func IsAllowedExtension(ext string) bool {
	_, ok := allowedAttachmentExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok
}

// AttachmentExtension returns the lower-case extension of filename without the dot.
func AttachmentExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// ValidateUpload checks an incoming file before anything is written.
func ValidateUpload(filename string, size int64) error {
	var errs ValidationErrors

	name := strings.TrimSpace(filename)
	switch {
	case name == "":
		errs.Add("file", "filename is required")
	case strings.Contains(name, ".."), strings.ContainsAny(name, `/\`):
		errs.Add("file", "filename contains an invalid path sequence")
	case !IsAllowedExtension(AttachmentExtension(name)):
		errs.Add("file", "file type is not allowed")
	}

	switch {
	case size <= 0:
		errs.Add("file", "file is empty")
	case size > MaxAttachmentSize:
		errs.Add("file", "file exceeds the 50MB limit")
	}

	if err := errs.Err(); err != nil {
		errs[0].Err = ErrInvalidUpload
		return errs
	}
	return nil
}

// StoredFilenameFor builds a collision-free stored name that keeps the extension.
func StoredFilenameFor(originalFilename string) string {
	ext := AttachmentExtension(originalFilename)
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}

// NewTaskAttachment creates attachment metadata after ValidateUpload succeeded.
func NewTaskAttachment(
	taskID uuid.UUID,
	uploader UserSummary,
	originalFilename, storedFilename, filePath, contentType string,
	size int64,
) *TaskAttachment {
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &TaskAttachment{
		ID:               uuid.New(),
		TaskID:           taskID,
		OriginalFilename: strings.TrimSpace(originalFilename),
		StoredFilename:   storedFilename,
		FilePath:         filePath,
		FileSize:         size,
		ContentType:      contentType,
		UploadedBy:       uploader,
		UploadedAt:       time.Now().UTC(),
	}
}
