// Package storage provides scratch-file and final-asset storage.
// It defines the Storage interface (port) for hexagonal architecture and
// implementations for a local scratch arena and S3-backed delivery.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for scratch files and final asset delivery.
// Scratch files live in an owned arena directory and are evicted together
// when the owning run finishes.
type Storage interface {
	// NewFile reserves a randomly named scratch path with the given
	// extension. The file is not created; callers write to it directly.
	NewFile(ext string) string

	// Save writes data to a new scratch file and returns its path.
	Save(ctx context.Context, ext string, data io.Reader) (path string, err error)

	// Open reads a scratch file. The caller is responsible for closing
	// the returned ReadCloser.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Cleanup removes the arena directory and everything in it.
	Cleanup(ctx context.Context) error

	// Upload uploads data to the configured bucket and returns the
	// public URL. Returns ErrS3NotConfigured if S3 is not configured.
	Upload(ctx context.Context, key string, data io.Reader) (url string, err error)
}
