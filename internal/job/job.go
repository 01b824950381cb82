// Package job provides the job aggregate for video generation runs.
// It includes the Job entity with state machine transitions, repository
// interfaces for persistence and the runner that executes a job against
// the video coordinator.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/lumora/creative-api/internal/job/id"
	"github.com/lumora/creative-api/internal/video"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusQueued indicates the job is waiting for a worker process.
	StatusQueued Status = "queued"
	// StatusRunning indicates the job is being processed by a worker.
	StatusRunning Status = "running"
	// StatusCompleted indicates the job finished successfully.
	StatusCompleted Status = "completed"
	// StatusError indicates the job encountered an error during execution.
	StatusError Status = "error"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed. A queued
// job can fail directly when its worker cannot be spawned.
var validTransitions = map[Status][]Status{
	StatusQueued:    {StatusRunning, StatusError},
	StatusRunning:   {StatusCompleted, StatusError},
	StatusCompleted: {},
	StatusError:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents one video generation run. It carries the request
// snapshot, ordered progress log lines and, once terminal, the result
// or error. Fields are JSON-tagged because repositories persist the
// aggregate as a single document.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string `json:"id"`
	// Status is the current job state.
	Status Status `json:"status"`
	// Request is the generation request snapshot taken at creation.
	Request video.Request `json:"request"`
	// Logs holds ordered progress lines appended during the run.
	Logs []string `json:"logs,omitempty"`
	// Result is the generation outcome, set only on completion.
	Result *video.Result `json:"result,omitempty"`
	// Error contains the failure message if the job errored.
	Error string `json:"error,omitempty"`
	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time `json:"updated_at"`
	// StartedAt is when processing started.
	StartedAt time.Time `json:"started_at,omitempty"`
	// CompletedAt is when processing finished.
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// New creates a new Job for the given request with a generated ID and
// initial queued status.
func New(req video.Request) *Job {
	return NewWithID(id.Generate(), req)
}

// NewWithID creates a new Job with the specified ID and initial queued
// status. Useful for testing or when the ID is generated externally.
func NewWithID(jobID string, req video.Request) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusQueued,
		Request:   req,
		Logs:      make([]string, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

// transitionLocked performs the state change under an already-held
// lock. The transition is validated before any field changes, so a
// rejected transition leaves the job untouched.
func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusError:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from queued to running.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// SetResult transitions the job to completed and stores the generation
// result. A rejected transition attaches nothing. A result carrying a
// truncation error still counts as completed; the degradation is
// visible in the result itself.
func (j *Job) SetResult(res video.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	j.Result = &res
	return nil
}

// Fail transitions the job to error state and stores the failure
// message. A rejected transition attaches nothing.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusError); err != nil {
		return err
	}
	j.Error = errMsg
	return nil
}

// AppendLog appends one progress line to the job record.
func (j *Job) AppendLog(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Logs = append(j.Logs, line)
	j.UpdatedAt = time.Now()
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusError
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	logs := make([]string, len(j.Logs))
	copy(logs, j.Logs)

	var result *video.Result
	if j.Result != nil {
		r := *j.Result
		r.Clips = make([]video.Clip, len(j.Result.Clips))
		copy(r.Clips, j.Result.Clips)
		result = &r
	}

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Request:     j.Request,
		Logs:        logs,
		Result:      result,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
