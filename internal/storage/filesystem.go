package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// UploadsRoute is where the HTTP server exposes filesystem objects.
const UploadsRoute = "/uploads/"

// FilesystemStorage implements Storage on a local directory. Objects are
// served by the app itself under UploadsRoute, so references are permanent
// as long as the directory is kept.
type FilesystemStorage struct {
	baseDir string
	baseURL string
}

// NewFilesystemStorage creates the base directory if needed
func NewFilesystemStorage(baseDir, appURL string) (*FilesystemStorage, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
	}
	//nolint:gosec // Directory permissions 0755 are intentional
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FilesystemStorage{
		baseDir: abs,
		baseURL: strings.TrimSuffix(appURL, "/") + strings.TrimSuffix(UploadsRoute, "/"),
	}, nil
}

// Dir returns the directory objects are stored in
func (s *FilesystemStorage) Dir() string {
	return s.baseDir
}

// Save writes to a temp file and renames it into place, so a partially
// written object is never visible under its key.
func (s *FilesystemStorage) Save(ctx context.Context, path string, file io.Reader, _ string) error {
	target, err := s.objectPath(path)
	if err != nil {
		return err
	}

	//nolint:gosec // Directory permissions 0755 are intentional
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = io.Copy(tmp, contextReader{ctx: ctx, r: file})
	closeErr := tmp.Close()
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	//nolint:mnd // filemode constant
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to commit file: %w", err)
	}

	return nil
}

// URL returns the app-served URL of a committed object
func (s *FilesystemStorage) URL(_ context.Context, path string) (string, error) {
	target, err := s.objectPath(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat object: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	return s.baseURL + "/" + escapeKey(path), nil
}

// Delete removes an object from disk
func (s *FilesystemStorage) Delete(_ context.Context, path string) error {
	target, err := s.objectPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// objectPath maps a key to a file under baseDir, rejecting escapes
func (s *FilesystemStorage) objectPath(key string) (string, error) {
	target := filepath.Join(s.baseDir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.baseDir, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return target, nil
}

// contextReader stops a copy once the context is cancelled
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
