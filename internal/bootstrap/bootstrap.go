// Package bootstrap provides dependency initialization shared by the
// API server and the per-job worker.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/lumora/creative-api/internal/brand"
	"github.com/lumora/creative-api/internal/config"
	"github.com/lumora/creative-api/internal/fal"
	"github.com/lumora/creative-api/internal/heygen"
	"github.com/lumora/creative-api/internal/job"
	"github.com/lumora/creative-api/internal/publish"
	"github.com/lumora/creative-api/internal/script"
	"github.com/lumora/creative-api/internal/storage"
	"github.com/lumora/creative-api/internal/veo"
	"github.com/lumora/creative-api/internal/video"
)

// Dependencies holds the initialized collaborators both binaries share.
// Generation-side components (storage arena, adapters, coordinator) are
// built per run by the worker; see NewStorage and NewCoordinator.
type Dependencies struct {
	// Repo is the job repository selected by configuration.
	Repo job.Repository
	// HeyGen is the avatar provider client; nil when disabled.
	HeyGen heygen.Client
	// Kit is the brand kit; nil when no brand file is configured.
	Kit *brand.Kit
	// Publisher uploads finished videos; nil when not configured.
	Publisher *publish.YouTube
}

// NewDependencies creates the shared collaborators from configuration.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	repo, err := newRepository(cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{Repo: repo}

	if cfg.HeyGenEnabled() {
		client, err := heygen.NewClient(heygen.WithAPIKey(cfg.HeyGenAPIKey))
		if err != nil {
			return nil, fmt.Errorf("create heygen client: %w", err)
		}
		deps.HeyGen = client
	}

	if cfg.BrandFile != "" {
		kit, err := brand.Load(cfg.BrandFile)
		if err != nil {
			return nil, fmt.Errorf("load brand kit: %w", err)
		}
		deps.Kit = kit
		logger.Info("brand kit loaded",
			slog.String("file", cfg.BrandFile),
			slog.String("name", kit.Name),
		)
	}

	if cfg.PublishEnabled() {
		deps.Publisher = publish.NewYouTube(cfg.YouTubeCredentialsFile, cfg.YouTubeTokenFile, logger)
	}

	return deps, nil
}

// newRepository selects the job store: Redis when an address is
// configured, otherwise per-job JSON files.
func newRepository(cfg *config.Config, logger *slog.Logger) (job.Repository, error) {
	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		logger.Info("redis job store configured",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return job.NewRedisRepository(client), nil
	}

	repo, err := job.NewFileRepository(cfg.JobsDir)
	if err != nil {
		return nil, fmt.Errorf("create file job store: %w", err)
	}
	logger.Info("file job store configured",
		slog.String("dir", cfg.JobsDir),
	)
	return repo, nil
}

// NewStorage creates the scratch arena for one run and wraps it with S3
// delivery when a bucket is configured. The arena is returned alongside
// the storage so the caller owns cleanup.
func NewStorage(cfg *config.Config, runID string, logger *slog.Logger) (storage.Storage, *storage.Arena, error) {
	arena, err := storage.NewArena(cfg.ScratchDir, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("create scratch arena: %w", err)
	}

	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Storage(arena, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, arena, nil
	}

	logger.Info("scratch arena configured",
		slog.String("dir", arena.Dir()),
	)
	return arena, arena, nil
}

// NewCoordinator builds the video coordination core with one adapter
// per provider whose credential is configured. Requests that need a
// provider without an adapter fail fast at selection time.
func NewCoordinator(cfg *config.Config, store storage.Storage, logger *slog.Logger) (*video.Coordinator, error) {
	poller := video.NewPoller(cfg.PollInterval(), cfg.PollMaxAttempts, logger)

	var adapters []video.Adapter

	if cfg.VeoEnabled() {
		client, err := veo.NewClient(cfg.VeoModel, veo.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("create veo client: %w", err)
		}
		adapters = append(adapters, video.NewShortClipAdapter(client, poller, store, logger))
	}

	if cfg.FalEnabled() {
		client, err := fal.NewClient(cfg.FalModel, fal.WithKey(cfg.FalKey))
		if err != nil {
			return nil, fmt.Errorf("create fal client: %w", err)
		}
		adapters = append(adapters, video.NewLongFormAdapter(client, store, logger))
	}

	if cfg.HeyGenEnabled() {
		client, err := heygen.NewClient(heygen.WithAPIKey(cfg.HeyGenAPIKey))
		if err != nil {
			return nil, fmt.Errorf("create heygen client: %w", err)
		}
		adapters = append(adapters, video.NewAvatarAdapter(client, poller, logger))
	}

	selector := video.NewSelector(logger, adapters...)
	chain := video.NewChainDriver(logger)
	materializer := video.NewMaterializer()

	return video.NewCoordinator(selector, chain, materializer, logger), nil
}

// NewScriptWriter builds the prompt writer when the text-model
// credential is available. Returns nil without error when it is not;
// callers fall back to the base prompt.
func NewScriptWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*script.Writer, error) {
	if !cfg.VeoEnabled() {
		return nil, nil
	}
	model, err := script.NewGenaiModel(ctx, cfg.GeminiAPIKey, cfg.ScriptModel)
	if err != nil {
		return nil, fmt.Errorf("create script model: %w", err)
	}
	return script.NewWriter(model, logger), nil
}
