package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrS3NotConfigured is returned when S3 operations are attempted
// without proper configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// Arena implements the Storage interface using a run-scoped scratch
// directory on local disk. Each run gets its own directory so that one
// Cleanup call evicts every intermediate file the run produced, instead
// of leaking them into a shared temp directory.
type Arena struct {
	dir string
}

// NewArena creates a scratch arena under baseDir for the given run.
// If baseDir is empty, os.TempDir() is used. If runID is empty, a random
// one is generated. The directory is created if it doesn't exist.
func NewArena(baseDir, runID string) (*Arena, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "creative-api")
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create arena directory: %w", err)
	}

	return &Arena{dir: dir}, nil
}

// Dir returns the arena directory path.
func (a *Arena) Dir() string {
	return a.dir
}

// NewFile reserves a randomly named scratch path with the given extension.
func (a *Arena) NewFile(ext string) string {
	name := uuid.NewString()
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(a.dir, name)
}

// Save writes data to a new scratch file and returns its path.
func (a *Arena) Save(ctx context.Context, ext string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path := a.NewFile(ext)
	f, err := os.Create(path) // #nosec G304 - path is arena-owned
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write scratch file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close scratch file: %w", err)
	}

	return path, nil
}

// Open reads a scratch file and returns a reader.
// The caller is responsible for closing the returned ReadCloser.
func (a *Arena) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("open scratch file: %w", err)
	}

	return f, nil
}

// Cleanup removes the arena directory and everything in it.
func (a *Arena) Cleanup(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if err := os.RemoveAll(a.dir); err != nil {
		return fmt.Errorf("remove arena directory: %w", err)
	}
	return nil
}

// Upload is not supported by Arena and returns ErrS3NotConfigured.
func (a *Arena) Upload(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrS3NotConfigured
}
