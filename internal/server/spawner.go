package server

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Spawner starts the worker process that executes one queued job.
// Each job runs in its own OS process so one job's crash or indefinite
// block cannot starve another.
type Spawner interface {
	Spawn(jobID string) error
}

// ExecSpawner launches the worker binary with the job id. The process
// is detached from the HTTP request lifecycle; a reaper goroutine
// collects its exit status so it never zombies.
type ExecSpawner struct {
	bin    string
	logger *slog.Logger
}

// NewExecSpawner creates a spawner for the given worker binary. The
// binary is resolved through PATH when not an absolute path.
func NewExecSpawner(bin string, logger *slog.Logger) *ExecSpawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecSpawner{bin: bin, logger: logger}
}

// Spawn starts the worker for jobID and returns once the process has
// started. The worker writes its outcome into the job record; the
// spawner only reports whether the process could be launched.
func (s *ExecSpawner) Spawn(jobID string) error {
	cmd := exec.Command(s.bin, "-job", jobID) // #nosec G204 - binary comes from configuration
	cmd.Env = os.Environ()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn worker for job %s: %w", jobID, err)
	}

	s.logger.Info("worker spawned",
		slog.String("job_id", jobID),
		slog.Int("pid", cmd.Process.Pid),
	)

	go func() {
		if err := cmd.Wait(); err != nil {
			// A non-zero exit means the job errored; the worker has
			// already persisted the failure into the record.
			s.logger.Warn("worker exited with error",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.Info("worker exited", slog.String("job_id", jobID))
	}()

	return nil
}
