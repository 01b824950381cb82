// Package server provides the HTTP API for the creative service.
// It includes handlers, middleware, routes, DTOs and the worker
// process spawner, separated from the domain types.
package server

import (
	"time"

	"github.com/lumora/creative-api/internal/heygen"
	"github.com/lumora/creative-api/internal/video"
)

// ImageRefRequest references an input image by local path or remote URI.
type ImageRefRequest struct {
	// Path is a local file path.
	Path string `json:"path,omitempty"`
	// URI is a remote location.
	URI string `json:"uri,omitempty" validate:"omitempty,url"`
	// MimeType is the image content type.
	MimeType string `json:"mime_type,omitempty"`
}

// CreateJobRequest is the HTTP request body for creating a generation job.
type CreateJobRequest struct {
	// Prompt is the generation prompt, or the campaign brief in avatar mode.
	Prompt string `json:"prompt" validate:"required"`
	// DurationSeconds is the requested video length.
	DurationSeconds int `json:"duration_seconds" validate:"required,min=8,max=900"`
	// AspectRatio is the output aspect ratio.
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16 1:1"`
	// Resolution is the output resolution.
	Resolution string `json:"resolution" validate:"omitempty,oneof=720p 1080p"`
	// Mode selects faceless or avatar generation.
	Mode string `json:"mode" validate:"omitempty,oneof=faceless avatar"`
	// Provider optionally overrides the provider selection heuristics.
	Provider string `json:"provider" validate:"omitempty,oneof=short-clip long-form avatar"`
	// NegativePrompt describes what the output must avoid.
	NegativePrompt string `json:"negative_prompt,omitempty"`
	// ReferenceImages guide the generation style (at most 3).
	ReferenceImages []ImageRefRequest `json:"reference_images,omitempty" validate:"max=3,dive"`
	// FirstFrame pins the opening frame.
	FirstFrame *ImageRefRequest `json:"first_frame,omitempty"`
	// LastFrame pins the closing frame.
	LastFrame *ImageRefRequest `json:"last_frame,omitempty"`
	// ExtensionPrompts are per-extension continuation prompts for chains.
	ExtensionPrompts []string `json:"extension_prompts,omitempty"`
	// AvatarID selects the persona in avatar mode.
	AvatarID string `json:"avatar_id,omitempty"`
	// VoiceID selects the voice in avatar mode.
	VoiceID string `json:"voice_id,omitempty"`
}

// toRequest maps the DTO onto the domain request.
func (r CreateJobRequest) toRequest() video.Request {
	req := video.Request{
		Prompt:           r.Prompt,
		DurationSeconds:  r.DurationSeconds,
		AspectRatio:      r.AspectRatio,
		Resolution:       r.Resolution,
		Mode:             video.Mode(r.Mode),
		ExplicitProvider: video.Provider(r.Provider),
		NegativePrompt:   r.NegativePrompt,
		ExtensionPrompts: r.ExtensionPrompts,
		AvatarID:         r.AvatarID,
		VoiceID:          r.VoiceID,
	}
	for _, ref := range r.ReferenceImages {
		req.ReferenceImages = append(req.ReferenceImages, toImageRef(ref))
	}
	if r.FirstFrame != nil {
		ref := toImageRef(*r.FirstFrame)
		req.FirstFrame = &ref
	}
	if r.LastFrame != nil {
		ref := toImageRef(*r.LastFrame)
		req.LastFrame = &ref
	}
	return req
}

func toImageRef(r ImageRefRequest) video.ImageRef {
	return video.ImageRef{Path: r.Path, URI: r.URI, MimeType: r.MimeType}
}

// CreateJobResponse is the HTTP response after creating a job.
type CreateJobResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// JobResponse is the HTTP response for getting job details.
type JobResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Logs holds the ordered progress lines the worker reported.
	Logs []string `json:"logs,omitempty"`
	// Result is the generation outcome, present once completed. A
	// truncated chain still completes; the truncation is visible in
	// the result's error annotation.
	Result *video.Result `json:"result,omitempty"`
	// Error contains the failure message if the job errored.
	Error string `json:"error,omitempty"`
	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// JobSummary is one entry in the job listing.
type JobSummary struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	Mode            string    `json:"mode"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListJobsResponse is the HTTP response for the job listing.
type ListJobsResponse struct {
	Jobs []JobSummary `json:"jobs"`
}

// PublishJobRequest is the HTTP request body for publishing a completed
// job's video. All fields are optional; defaults come from the job's
// request and the brand kit.
type PublishJobRequest struct {
	Title       string   `json:"title,omitempty" validate:"omitempty,max=100"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Privacy     string   `json:"privacy,omitempty" validate:"omitempty,oneof=private unlisted public"`
}

// PublishJobResponse is the HTTP response after publishing.
type PublishJobResponse struct {
	VideoID  string `json:"video_id"`
	WatchURL string `json:"watch_url"`
}

// CatalogResponse is the combined avatar and voice catalog.
type CatalogResponse struct {
	Avatars []heygen.Avatar `json:"avatars"`
	Voices  []heygen.Voice  `json:"voices"`
}

// AvatarsResponse is the avatar catalog listing.
type AvatarsResponse struct {
	Avatars []heygen.Avatar `json:"avatars"`
}

// VoicesResponse is the voice catalog listing.
type VoicesResponse struct {
	Voices []heygen.Voice `json:"voices"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
