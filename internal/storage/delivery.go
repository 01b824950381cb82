package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Delivery moves a run's final asset out of the scratch arena into a
// durable output directory and, when S3 is configured, uploads it to
// the bucket. Without it the arena cleanup would take the only copy of
// the finished video with it.
type Delivery struct {
	outputDir string
	store     Storage
	logger    *slog.Logger
}

// NewDelivery creates a delivery targeting outputDir, creating the
// directory if needed. store provides the upload path; an arena-only
// store makes delivery local-only.
func NewDelivery(outputDir string, store Storage, logger *slog.Logger) (*Delivery, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Delivery{outputDir: outputDir, store: store, logger: logger}, nil
}

// Deliver moves the file at localPath into the output directory under
// name and uploads it when a bucket is configured. It returns the
// durable local path and the public URL; the URL is empty when S3 is
// not configured. The source file no longer exists afterwards, so the
// arena can be cleaned up without losing the asset.
func (d *Delivery) Deliver(ctx context.Context, localPath, name string) (string, string, error) {
	dest := filepath.Join(d.outputDir, name)
	if err := moveFile(localPath, dest); err != nil {
		return "", "", fmt.Errorf("deliver asset: %w", err)
	}

	f, err := os.Open(dest) // #nosec G304 - dest is delivery-owned
	if err != nil {
		return "", "", fmt.Errorf("open delivered asset: %w", err)
	}
	defer f.Close()

	url, err := d.store.Upload(ctx, name, f)
	if err != nil {
		if errors.Is(err, ErrS3NotConfigured) {
			d.logger.Debug("bucket not configured, keeping local copy only",
				slog.String("path", dest),
			)
			return dest, "", nil
		}
		return "", "", fmt.Errorf("upload delivered asset: %w", err)
	}

	d.logger.Info("asset delivered",
		slog.String("path", dest),
		slog.String("url", url),
	)
	return dest, url, nil
}

// moveFile renames src to dest, falling back to copy-and-remove when
// the two paths sit on different filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src) // #nosec G304 - src is arena-owned
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest) // #nosec G304 - dest is delivery-owned
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("copy to destination: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("close destination: %w", err)
	}

	return os.Remove(src)
}
