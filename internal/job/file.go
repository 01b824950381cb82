package job

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lumora/creative-api/internal/job/id"
)

// Compile-time check that FileRepository implements Repository.
var _ Repository = (*FileRepository)(nil)

// FileRepository persists each job as one JSON document named after the
// job ID. Writes go through a temp file and rename, so a crash mid-write
// never leaves a truncated record, and a server restart loses nothing.
type FileRepository struct {
	dir string
}

// NewFileRepository creates a file-backed job repository rooted at dir,
// creating the directory if needed.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create jobs directory: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) path(jobID string) string {
	return filepath.Join(r.dir, jobID+".json")
}

// Save writes the job document atomically.
func (r *FileRepository) Save(_ context.Context, job *Job) error {
	data, err := json.MarshalIndent(job.Clone(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	tmp, err := os.CreateTemp(r.dir, job.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write job %s: %w", job.ID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path(job.ID)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename job %s: %w", job.ID, err)
	}
	return nil
}

// FindByID reads one job document. IDs that fail validation are treated
// as not found; they cannot name a record and must never touch the
// filesystem.
func (r *FileRepository) FindByID(_ context.Context, jobID string) (*Job, error) {
	if !id.Valid(jobID) {
		return nil, ErrJobNotFound
	}

	data, err := os.ReadFile(r.path(jobID)) // #nosec G304 - id is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("read job %s: %w", jobID, err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// List reads every job document in the directory, oldest first. A
// record that fails to decode hides that one job, not the whole
// listing.
func (r *FileRepository) List(_ context.Context) ([]*Job, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read jobs directory: %w", err)
	}

	jobs := make([]*Job, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if !id.Valid(strings.TrimSuffix(name, ".json")) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.dir, name)) // #nosec G304 - name is validated above
		if err != nil {
			continue
		}
		var job Job
		if err := json.Unmarshal(data, &job); err != nil {
			continue
		}
		jobs = append(jobs, &job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// Delete removes one job document.
func (r *FileRepository) Delete(_ context.Context, jobID string) error {
	if !id.Valid(jobID) {
		return ErrJobNotFound
	}

	if err := os.Remove(r.path(jobID)); err != nil {
		if os.IsNotExist(err) {
			return ErrJobNotFound
		}
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}
	return nil
}
