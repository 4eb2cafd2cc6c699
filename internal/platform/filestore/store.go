// Package filestore keeps attachment blobs on a filesystem.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/store"
)

// Store implements store.FileStore on an afero filesystem rooted at dir.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

var _ store.FileStore = (*Store)(nil)

// New creates a file store writing under dir, creating it when missing.
func New(fsys afero.Fs, dir string, logger *slog.Logger) (*Store, error) {
	if fsys == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := fsys.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %q: %w", dir, err)
	}

	return &Store{
		fs:     fsys,
		dir:    dir,
		logger: logger.With(slog.String("component", "file_store")),
	}, nil
}

// NewOS creates a file store on the host filesystem.
func NewOS(dir string, logger *slog.Logger) (*Store, error) {
	return New(afero.NewOsFs(), dir, logger)
}

// Save implements store.FileStore.Save. At most limit bytes are accepted;
// a larger blob is removed and store.ErrFileTooLarge returned.
func (s *Store) Save(ctx context.Context, name string, r io.Reader, limit int64) (string, int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	path, err := s.path(name)
	if err != nil {
		return "", 0, err
	}

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		log.Error("failed to create blob", slog.String("error", err.Error()), slog.String("name", name))
		return "", 0, fmt.Errorf("failed to create %q: %w", name, err)
	}

	written, copyErr := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		s.discard(log, path)
		return "", 0, fmt.Errorf("failed to write %q: %w", name, copyErr)
	case written > limit:
		s.discard(log, path)
		return "", 0, store.ErrFileTooLarge
	case closeErr != nil:
		s.discard(log, path)
		return "", 0, fmt.Errorf("failed to close %q: %w", name, closeErr)
	}

	log.Debug("blob stored", slog.String("name", name), slog.Int64("size", written))
	return path, written, nil
}

// Open implements store.FileStore.Open.
func (s *Store) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open %q: %w", name, err)
	}
	return f, nil
}

// Delete implements store.FileStore.Delete.
func (s *Store) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.ErrFileNotFound
		}
		return fmt.Errorf("failed to delete %q: %w", name, err)
	}
	return nil
}

// path resolves a bare stored filename inside the upload directory.
func (s *Store) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid stored filename %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Store) discard(log *slog.Logger, path string) {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("failed to remove partial blob", slog.String("error", err.Error()), slog.String("path", path))
	}
}
