package job

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lumora/creative-api/internal/video"
)

// Generator runs one video generation end to end. It is implemented by
// the video coordinator.
type Generator interface {
	Generate(ctx context.Context, req video.Request) (video.Result, error)
}

// Deliverer moves a locally produced asset out of the run's scratch
// space into durable storage. It is implemented by storage.Delivery.
type Deliverer interface {
	Deliver(ctx context.Context, localPath, name string) (durablePath, url string, err error)
}

// Runner executes a persisted job against the generator. The generation
// core knows nothing about jobs; the runner is the only writer of the
// record while the run is in flight.
type Runner struct {
	repo      Repository
	generator Generator
	deliverer Deliverer
	logger    *slog.Logger
}

// RunnerOption configures optional runner collaborators.
type RunnerOption func(*Runner)

// WithDeliverer makes the runner move locally produced assets into
// durable storage before the job completes. Without it, local results
// are persisted where the generator left them.
func WithDeliverer(d Deliverer) RunnerOption {
	return func(r *Runner) {
		r.deliverer = d
	}
}

// NewRunner creates a runner over a repository and a generator.
func NewRunner(repo Repository, generator Generator, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		repo:      repo,
		generator: generator,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads the job, marks it running, executes the generation and
// persists the terminal outcome. The returned error reflects the
// generation outcome so callers can exit non-zero; the job record
// carries the same information for API readers.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	j, err := r.repo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	if err := j.Start(); err != nil {
		return fmt.Errorf("start job %s in state %s: %w", j.ID, j.GetStatus(), err)
	}
	j.AppendLog(fmt.Sprintf("generation started, %ds requested", j.Request.DurationSeconds))
	if err := r.repo.Save(ctx, j); err != nil {
		return fmt.Errorf("persist running job %s: %w", j.ID, err)
	}

	r.logger.Info("job running",
		slog.String("job_id", j.ID),
		slog.Int("duration_seconds", j.Request.DurationSeconds),
		slog.String("mode", string(j.Request.Mode)),
	)

	started := time.Now()
	res, err := r.generator.Generate(ctx, j.Request)
	if err != nil {
		j.AppendLog("generation failed: " + err.Error())
		if ferr := j.Fail(err.Error()); ferr != nil {
			r.logger.Error("job cannot fail", slog.String("job_id", j.ID), slog.String("error", ferr.Error()))
		}
		if serr := r.repo.Save(ctx, j); serr != nil {
			r.logger.Error("persist failed job", slog.String("job_id", j.ID), slog.String("error", serr.Error()))
		}
		return fmt.Errorf("generate job %s: %w", j.ID, err)
	}

	if r.deliverer != nil && res.LocalPath != "" {
		name := j.ID + filepath.Ext(res.LocalPath)
		durable, url, derr := r.deliverer.Deliver(ctx, res.LocalPath, name)
		if derr != nil {
			j.AppendLog("delivery failed: " + derr.Error())
			if ferr := j.Fail(derr.Error()); ferr != nil {
				r.logger.Error("job cannot fail", slog.String("job_id", j.ID), slog.String("error", ferr.Error()))
			}
			if serr := r.repo.Save(ctx, j); serr != nil {
				r.logger.Error("persist failed job", slog.String("job_id", j.ID), slog.String("error", serr.Error()))
			}
			return fmt.Errorf("deliver job %s asset: %w", j.ID, derr)
		}
		res.LocalPath = durable
		if url != "" {
			res.VideoURL = url
			j.AppendLog("asset uploaded: " + url)
		}
		j.AppendLog("asset delivered: " + durable)
	}

	if res.Error != "" {
		j.AppendLog("chain truncated: " + res.Error)
	}
	j.AppendLog(fmt.Sprintf("generation completed: %s, %.1fs produced in %s",
		res.Provider, res.DurationSeconds, time.Since(started).Round(time.Second)))

	if err := j.SetResult(res); err != nil {
		return fmt.Errorf("complete job %s: %w", j.ID, err)
	}
	if err := r.repo.Save(ctx, j); err != nil {
		return fmt.Errorf("persist completed job %s: %w", j.ID, err)
	}

	r.logger.Info("job completed",
		slog.String("job_id", j.ID),
		slog.String("provider", string(res.Provider)),
		slog.Float64("duration_seconds", res.DurationSeconds),
		slog.Bool("truncated", res.Error != ""),
	)
	return nil
}
