package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumora/creative-api/internal/config"
	"github.com/lumora/creative-api/internal/job"
	"github.com/lumora/creative-api/internal/video"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		GeminiAPIKey:    "test-gemini-key",
		FalKey:          "test-fal-key",
		HeyGenAPIKey:    "test-heygen-key",
		VeoModel:        "veo-2.0-generate-001",
		FalModel:        "fal-ai/longcat-video",
		PollIntervalSec: 1,
		PollMaxAttempts: 3,
		ScratchDir:      t.TempDir(),
		JobsDir:         filepath.Join(t.TempDir(), "jobs"),
	}
}

func TestNewDependencies_FileRepo(t *testing.T) {
	cfg := testConfig(t)

	deps, err := NewDependencies(cfg, testLogger())
	require.NoError(t, err)

	require.IsType(t, &job.FileRepository{}, deps.Repo)
	assert.NotNil(t, deps.HeyGen)
	assert.Nil(t, deps.Kit)
	assert.Nil(t, deps.Publisher)
}

func TestNewDependencies_HeyGenDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.HeyGenAPIKey = ""

	deps, err := NewDependencies(cfg, testLogger())
	require.NoError(t, err)
	assert.Nil(t, deps.HeyGen)
}

func TestNewDependencies_BrandKit(t *testing.T) {
	cfg := testConfig(t)
	cfg.BrandFile = filepath.Join(t.TempDir(), "brand.yaml")
	kit := "name: Lumora\ntone: upbeat\ndefaults:\n  aspect_ratio: \"9:16\"\n"
	require.NoError(t, os.WriteFile(cfg.BrandFile, []byte(kit), 0600))

	deps, err := NewDependencies(cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, deps.Kit)
	assert.Equal(t, "Lumora", deps.Kit.Name)
}

func TestNewDependencies_BrandKitMissingFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.BrandFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewDependencies(cfg, testLogger())
	require.Error(t, err)
}

func TestNewStorage_Arena(t *testing.T) {
	cfg := testConfig(t)

	store, arena, err := NewStorage(cfg, "job-1", testLogger())
	require.NoError(t, err)
	require.NotNil(t, arena)
	assert.Equal(t, arena, store)
	assert.DirExists(t, arena.Dir())

	require.NoError(t, arena.Cleanup(context.Background()))
	assert.NoDirExists(t, arena.Dir())
}

func TestNewStorage_S3Wrapped(t *testing.T) {
	cfg := testConfig(t)
	cfg.S3Bucket = "assets"
	cfg.S3Region = "eu-west-1"

	store, arena, err := NewStorage(cfg, "job-1", testLogger())
	require.NoError(t, err)
	require.NotNil(t, arena)
	assert.NotEqual(t, arena, store)
}

func TestNewCoordinator_AllProviders(t *testing.T) {
	cfg := testConfig(t)

	_, arena, err := NewStorage(cfg, "job-1", testLogger())
	require.NoError(t, err)

	coordinator, err := NewCoordinator(cfg, arena, testLogger())
	require.NoError(t, err)
	require.NotNil(t, coordinator)
}

func TestNewCoordinator_MissingProviderFailsAtSelection(t *testing.T) {
	// Only the short-clip credential is configured; a long request that
	// needs the long-form provider fails fast instead of truncating.
	cfg := testConfig(t)
	cfg.FalKey = ""
	cfg.HeyGenAPIKey = ""

	_, arena, err := NewStorage(cfg, "job-1", testLogger())
	require.NoError(t, err)

	coordinator, err := NewCoordinator(cfg, arena, testLogger())
	require.NoError(t, err)

	_, err = coordinator.Generate(context.Background(), video.Request{
		Prompt:          "p",
		DurationSeconds: 200,
	})
	require.ErrorIs(t, err, video.ErrProviderUnavailable)
}
