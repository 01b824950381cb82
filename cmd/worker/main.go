// Package main provides the per-job worker process. The API server
// spawns one worker per queued job (-job mode); the same binary also
// runs one-off generations straight from CLI flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lumora/creative-api/internal/bootstrap"
	"github.com/lumora/creative-api/internal/config"
	"github.com/lumora/creative-api/internal/job"
	"github.com/lumora/creative-api/internal/storage"
	"github.com/lumora/creative-api/internal/video"
)

// stringList collects repeatable flag values.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// options are the parsed command-line flags.
type options struct {
	jobID string

	prompt         string
	duration       int
	aspect         string
	resolution     string
	mode           string
	provider       string
	negativePrompt string
	refs           stringList
	firstFrame     string
	lastFrame      string
	avatarID       string
	voiceID        string
	scriptFile     string
}

func parseFlags() *options {
	opts := &options{}

	flag.StringVar(&opts.jobID, "job", "", "run the persisted job with this id")

	flag.StringVar(&opts.prompt, "prompt", "", "generation prompt, or campaign brief in avatar mode")
	flag.IntVar(&opts.duration, "duration", 0, "requested duration in seconds (8-900)")
	flag.StringVar(&opts.aspect, "aspect", "", "aspect ratio: 16:9, 9:16 or 1:1")
	flag.StringVar(&opts.resolution, "resolution", "", "resolution: 720p or 1080p")
	flag.StringVar(&opts.mode, "mode", "", "generation mode: faceless or avatar")
	flag.StringVar(&opts.provider, "provider", "", "explicit provider override: short-clip, long-form or avatar")
	flag.StringVar(&opts.negativePrompt, "negative-prompt", "", "what the output must avoid")
	flag.Var(&opts.refs, "ref", "reference image path or URL (repeatable, at most 3)")
	flag.StringVar(&opts.firstFrame, "first-frame", "", "first-frame image path or URL")
	flag.StringVar(&opts.lastFrame, "last-frame", "", "last-frame image path or URL")
	flag.StringVar(&opts.avatarID, "avatar-id", "", "avatar persona id (avatar mode)")
	flag.StringVar(&opts.voiceID, "voice-id", "", "voice id (avatar mode)")
	flag.StringVar(&opts.scriptFile, "script-file", "", "file with the spoken script (avatar mode)")

	flag.Parse()
	return opts
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := parseFlags()

	// Load .env when present; the server passes its environment through.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	ctx := context.Background()

	var j *job.Job
	if opts.jobID != "" {
		j, err = deps.Repo.FindByID(ctx, opts.jobID)
		if err != nil {
			return fmt.Errorf("load job %s: %w", opts.jobID, err)
		}
	} else {
		req, err := buildRequest(ctx, cfg, deps, opts, logger)
		if err != nil {
			return err
		}
		j = job.New(req)
		if err := deps.Repo.Save(ctx, j); err != nil {
			return fmt.Errorf("persist job: %w", err)
		}
		logger.Info("job created", slog.String("job_id", j.ID))
	}

	store, arena, err := bootstrap.NewStorage(cfg, j.ID, logger)
	if err != nil {
		return err
	}

	coordinator, err := bootstrap.NewCoordinator(cfg, store, logger)
	if err != nil {
		return err
	}

	// Final assets move out of the arena before cleanup; the persisted
	// record must never point into scratch space.
	delivery, err := storage.NewDelivery(cfg.OutputDir, store, logger)
	if err != nil {
		return fmt.Errorf("initialize delivery: %w", err)
	}

	runner := job.NewRunner(deps.Repo, coordinator, logger, job.WithDeliverer(delivery))
	runErr := runner.Run(ctx, j.ID)

	if runErr != nil && cfg.KeepScratchOnError {
		logger.Warn("keeping scratch files for debugging",
			slog.String("job_id", j.ID),
			slog.String("dir", arena.Dir()),
		)
	} else if err := arena.Cleanup(context.Background()); err != nil {
		logger.Warn("scratch cleanup failed",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}

	return runErr
}

// buildRequest maps CLI flags onto a generation request, fills brand
// kit defaults and drafts prompt material where the text model can
// help. Drafting is best-effort: on failure the base prompt carries
// through unchanged.
func buildRequest(ctx context.Context, cfg *config.Config, deps *bootstrap.Dependencies, opts *options, logger *slog.Logger) (video.Request, error) {
	if opts.prompt == "" && opts.scriptFile == "" {
		return video.Request{}, errors.New("either -prompt or -script-file is required")
	}

	req := video.Request{
		Prompt:           opts.prompt,
		DurationSeconds:  opts.duration,
		AspectRatio:      opts.aspect,
		Resolution:       opts.resolution,
		Mode:             video.Mode(opts.mode),
		ExplicitProvider: video.Provider(opts.provider),
		NegativePrompt:   opts.negativePrompt,
		AvatarID:         opts.avatarID,
		VoiceID:          opts.voiceID,
	}
	for _, ref := range opts.refs {
		req.ReferenceImages = append(req.ReferenceImages, toImageRef(ref))
	}
	if opts.firstFrame != "" {
		ref := toImageRef(opts.firstFrame)
		req.FirstFrame = &ref
	}
	if opts.lastFrame != "" {
		ref := toImageRef(opts.lastFrame)
		req.LastFrame = &ref
	}

	if opts.scriptFile != "" {
		data, err := os.ReadFile(opts.scriptFile) // #nosec G304 - path comes from the CLI
		if err != nil {
			return video.Request{}, fmt.Errorf("read script file: %w", err)
		}
		req.Prompt = strings.TrimSpace(string(data))
		req.Mode = video.ModeAvatar
	}

	if deps.Kit != nil {
		req = deps.Kit.Apply(req)
	}

	draftPrompts(ctx, cfg, opts, &req, logger)
	return req, nil
}

// draftPrompts uses the text model to draft an avatar script (when no
// script file was given) or per-extension continuation beats for
// chained runs.
func draftPrompts(ctx context.Context, cfg *config.Config, opts *options, req *video.Request, logger *slog.Logger) {
	writer, err := bootstrap.NewScriptWriter(ctx, cfg, logger)
	if err != nil || writer == nil {
		if err != nil {
			logger.Warn("script writer unavailable", slog.String("error", err.Error()))
		}
		return
	}

	if req.Mode == video.ModeAvatar && opts.scriptFile == "" {
		drafted, err := writer.AvatarScript(ctx, req.Prompt, req.DurationSeconds)
		if err != nil {
			logger.Warn("avatar script drafting failed, using the brief as script",
				slog.String("error", err.Error()),
			)
			return
		}
		req.Prompt = drafted
		return
	}

	if req.Mode == video.ModeAvatar || len(req.ExtensionPrompts) > 0 {
		return
	}
	n := video.ExtensionCount(req.DurationSeconds)
	if n == 0 || req.DurationSeconds > video.MaxChainSeconds {
		// Long-form runs are a single call; no beats needed.
		return
	}

	beats, err := writer.ExtensionBeats(ctx, req.Prompt, n)
	if err != nil {
		logger.Warn("extension beat drafting failed, reusing the base prompt",
			slog.String("error", err.Error()),
		)
		return
	}
	req.ExtensionPrompts = beats
}

// toImageRef classifies a flag value as a local path or remote URI.
func toImageRef(v string) video.ImageRef {
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "gs://") {
		return video.ImageRef{URI: v}
	}
	return video.ImageRef{Path: v}
}
