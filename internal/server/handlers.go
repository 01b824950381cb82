package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/lumora/creative-api/internal/brand"
	"github.com/lumora/creative-api/internal/heygen"
	"github.com/lumora/creative-api/internal/job"
	"github.com/lumora/creative-api/internal/publish"
)

// Publisher uploads a finished video to a social platform.
type Publisher interface {
	Publish(ctx context.Context, videoPath string, meta publish.Metadata) (*publish.Upload, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	repo      job.Repository
	spawner   Spawner
	catalog   heygen.Client // nil when the avatar provider is disabled
	publisher Publisher     // nil when publishing is not configured
	kit       *brand.Kit    // nil when no brand kit is configured
	privacy   string
	validator *validator.Validate
	logger    *slog.Logger
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithCatalog wires the avatar provider client used by the catalog
// endpoints.
func WithCatalog(c heygen.Client) HandlerOption {
	return func(h *Handlers) {
		h.catalog = c
	}
}

// WithPublisher wires the publisher used by the publish endpoint and
// the default privacy for uploads.
func WithPublisher(p Publisher, privacy string) HandlerOption {
	return func(h *Handlers) {
		h.publisher = p
		h.privacy = privacy
	}
}

// WithBrandKit wires the brand kit applied to incoming requests and
// publishing metadata.
func WithBrandKit(kit *brand.Kit) HandlerOption {
	return func(h *Handlers) {
		h.kit = kit
	}
}

// NewHandlers creates a new Handlers instance over the job repository
// and the worker spawner.
func NewHandlers(repo job.Repository, spawner Spawner, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		repo:      repo,
		spawner:   spawner,
		privacy:   publish.PrivacyPrivate,
		validator: validator.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateJob handles POST /jobs requests. It persists a queued job and
// spawns the worker process that runs it; generation itself never
// happens inside the API process.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	genReq := req.toRequest()
	if h.kit != nil {
		genReq = h.kit.Apply(genReq)
	}
	if err := genReq.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	j := job.New(genReq)
	if err := h.repo.Save(r.Context(), j); err != nil {
		h.logger.Error("failed to persist job",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	if err := h.spawner.Spawn(j.ID); err != nil {
		h.logger.Error("failed to spawn worker",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		if ferr := j.Fail("worker spawn failed: " + err.Error()); ferr == nil {
			if serr := h.repo.Save(r.Context(), j); serr != nil {
				h.logger.Error("failed to persist spawn failure",
					slog.String("job_id", j.ID),
					slog.String("error", serr.Error()),
				)
			}
		}
		writeError(w, http.StatusInternalServerError, "failed to start worker", "WORKER_SPAWN_FAILED")
		return
	}

	h.logger.Info("job created",
		slog.String("job_id", j.ID),
		slog.Int("duration_seconds", genReq.DurationSeconds),
		slog.String("mode", string(genReq.Mode)),
	)

	writeJSON(w, http.StatusAccepted, CreateJobResponse{
		ID:     j.ID,
		Status: string(j.GetStatus()),
	})
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	found, err := h.repo.FindByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	clone := found.Clone()
	writeJSON(w, http.StatusOK, JobResponse{
		ID:        clone.ID,
		Status:    string(clone.Status),
		Logs:      clone.Logs,
		Result:    clone.Result,
		Error:     clone.Error,
		CreatedAt: clone.CreatedAt,
		UpdatedAt: clone.UpdatedAt,
	})
}

// ListJobs handles GET /jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	resp := ListJobsResponse{Jobs: make([]JobSummary, 0, len(jobs))}
	for _, j := range jobs {
		clone := j.Clone()
		resp.Jobs = append(resp.Jobs, JobSummary{
			ID:              clone.ID,
			Status:          string(clone.Status),
			Mode:            string(clone.Request.Mode),
			DurationSeconds: clone.Request.DurationSeconds,
			CreatedAt:       clone.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// PublishJob handles POST /jobs/{id}/publish requests. Only completed
// jobs whose video was materialized to a local file can be published.
func (h *Handlers) PublishJob(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		writeError(w, http.StatusNotImplemented, "publishing is not configured", "PUBLISH_NOT_CONFIGURED")
		return
	}

	jobID := r.PathValue("id")
	found, err := h.repo.FindByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	clone := found.Clone()
	if clone.Status != job.StatusCompleted || clone.Result == nil {
		writeError(w, http.StatusConflict, "job has no completed result", "JOB_NOT_COMPLETED")
		return
	}
	if clone.Result.LocalPath == "" {
		writeError(w, http.StatusUnprocessableEntity, "job result has no local video file", "NO_LOCAL_VIDEO")
		return
	}

	var req PublishJobRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}
	}

	meta := publish.BuildMetadata(clone.Request, h.kit, h.privacy)
	if req.Title != "" {
		meta.Title = req.Title
	}
	if req.Description != "" {
		meta.Description = req.Description
	}
	if len(req.Tags) > 0 {
		meta.Tags = req.Tags
	}
	if req.Privacy != "" {
		meta.Privacy = req.Privacy
	}

	if h.kit != nil {
		if banned := h.kit.Lint(meta.Title + " " + meta.Description); len(banned) > 0 {
			writeError(w, http.StatusUnprocessableEntity,
				"metadata contains banned terms: "+strings.Join(banned, ", "), "BANNED_TERMS")
			return
		}
	}

	up, err := h.publisher.Publish(r.Context(), clone.Result.LocalPath, meta)
	if err != nil {
		h.logger.Error("failed to publish video",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to publish video", "PUBLISH_FAILED")
		return
	}

	found.AppendLog("published: " + up.WatchURL)
	if err := h.repo.Save(r.Context(), found); err != nil {
		h.logger.Error("failed to persist publish log",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusOK, PublishJobResponse{
		VideoID:  up.VideoID,
		WatchURL: up.WatchURL,
	})
}

// Catalog handles GET /catalog requests, fetching the avatar and voice
// catalogs concurrently.
func (h *Handlers) Catalog(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeError(w, http.StatusNotImplemented, "avatar provider is not configured", "AVATARS_NOT_CONFIGURED")
		return
	}

	var (
		avatars []heygen.Avatar
		voices  []heygen.Voice
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		avatars, err = h.catalog.ListAvatars(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		voices, err = h.catalog.ListVoices(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		h.logger.Error("failed to fetch catalog",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch catalog", "CATALOG_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, CatalogResponse{Avatars: avatars, Voices: voices})
}

// Avatars handles GET /catalog/avatars requests.
func (h *Handlers) Avatars(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeError(w, http.StatusNotImplemented, "avatar provider is not configured", "AVATARS_NOT_CONFIGURED")
		return
	}

	avatars, err := h.catalog.ListAvatars(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch avatars",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch avatars", "CATALOG_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, AvatarsResponse{Avatars: avatars})
}

// Voices handles GET /catalog/voices requests.
func (h *Handlers) Voices(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeError(w, http.StatusNotImplemented, "avatar provider is not configured", "AVATARS_NOT_CONFIGURED")
		return
	}

	voices, err := h.catalog.ListVoices(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch voices",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch voices", "CATALOG_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, VoicesResponse{Voices: voices})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
