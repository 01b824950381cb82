// Package fal provides an HTTP client for the fal.ai queue API.
package fal

// Status represents the status of a queued fal request.
type Status string

// Queue statuses aligned with the fal API.
const (
	StatusInQueue    Status = "IN_QUEUE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// IsTerminal returns true if the status is a terminal state.
// The queue reports COMPLETED for failed requests too; the failure
// surfaces when the response payload is fetched.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// GenerateInput is the model input for a long-form generation request.
type GenerateInput struct {
	Prompt          string `json:"prompt"`
	NegativePrompt  string `json:"negative_prompt,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	AspectRatio     string `json:"aspect_ratio,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
	ImageURL        string `json:"image_url,omitempty"` // optional first frame
	Seed            int    `json:"seed,omitempty"`
}

// File is a file reference returned by the model.
type File struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
}

// GenerateOutput is the model output of a finished generation request.
type GenerateOutput struct {
	Video           File    `json:"video"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Seed            int     `json:"seed,omitempty"`
}

// LogEntry is a single log line emitted while a request runs.
type LogEntry struct {
	Message   string `json:"message"`
	Level     string `json:"level,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Update is delivered to Subscribe callbacks on every observed queue
// transition. Logs carries only lines not previously delivered.
type Update struct {
	Status        Status
	QueuePosition int
	Logs          []LogEntry
}

// submitResponse is the response from the queue submission endpoint.
type submitResponse struct {
	RequestID   string `json:"request_id"`
	ResponseURL string `json:"response_url,omitempty"`
	StatusURL   string `json:"status_url,omitempty"`
	CancelURL   string `json:"cancel_url,omitempty"`
}

// statusResponse is the response from the queue status endpoint.
type statusResponse struct {
	Status        string     `json:"status"`
	QueuePosition int        `json:"queue_position,omitempty"`
	ResponseURL   string     `json:"response_url,omitempty"`
	Logs          []LogEntry `json:"logs,omitempty"`
}

// errorDetail is the error payload returned for failed requests.
type errorDetail struct {
	Detail any `json:"detail,omitempty"`
}
