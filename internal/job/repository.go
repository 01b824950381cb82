package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when no job record exists for an ID.
var ErrJobNotFound = errors.New("job not found")

// Repository persists video generation job records. The server process
// writes a record before spawning a worker, the worker rewrites it as
// generation progresses, so every implementation must treat Save as an
// upsert keyed by job ID.
type Repository interface {
	// Save writes the job record, replacing any existing record with
	// the same ID.
	Save(ctx context.Context, job *Job) error

	// FindByID loads a job record. Returns ErrJobNotFound when no
	// record exists for the ID.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all job records ordered oldest-first by creation
	// time, so paging through a run history is stable.
	List(ctx context.Context) ([]*Job, error)

	// Delete removes a job record. Returns ErrJobNotFound when no
	// record exists for the ID.
	Delete(ctx context.Context, id string) error
}
