// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrNoProviderConfigured is returned when no generation provider credential is set.
	ErrNoProviderConfigured = errors.New("config: at least one provider credential is required (GEMINI_API_KEY, FAL_KEY or HEYGEN_API_KEY)")
	// ErrPollIntervalInvalid is returned when the poll interval is not positive.
	ErrPollIntervalInvalid = errors.New("config: POLL_INTERVAL_SEC must be positive")
	// ErrPollAttemptsInvalid is returned when the poll attempt ceiling is not positive.
	ErrPollAttemptsInvalid = errors.New("config: POLL_MAX_ATTEMPTS must be positive")
)

// Config holds all configuration for the application.
// Both the API server and the per-job worker load the same struct.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Provider credentials. A provider is enabled if and only if its
	// credential is set; a request that needs a disabled provider fails fast.
	GeminiAPIKey string `env:"GEMINI_API_KEY" json:"-"` // Masked in JSON
	FalKey       string `env:"FAL_KEY" json:"-"`        // Masked in JSON
	HeyGenAPIKey string `env:"HEYGEN_API_KEY" json:"-"` // Masked in JSON

	// Provider model/app identifiers
	VeoModel    string `env:"VEO_MODEL, default=veo-2.0-generate-001" json:"veo_model"`
	FalModel    string `env:"FAL_MODEL, default=fal-ai/longcat-video" json:"fal_model"`
	ScriptModel string `env:"SCRIPT_MODEL, default=gemini-2.5-flash" json:"script_model"`

	// Remote operation polling
	PollIntervalSec int `env:"POLL_INTERVAL_SEC, default=10" json:"poll_interval_sec"`
	PollMaxAttempts int `env:"POLL_MAX_ATTEMPTS, default=60" json:"poll_max_attempts"`

	// Storage settings
	ScratchDir         string `env:"SCRATCH_DIR, default=/tmp/creative-api" json:"scratch_dir"`
	KeepScratchOnError bool   `env:"KEEP_SCRATCH_ON_ERROR, default=false" json:"keep_scratch_on_error"`
	JobsDir            string `env:"JOBS_DIR, default=data/jobs" json:"jobs_dir"`
	OutputDir          string `env:"OUTPUT_DIR, default=data/assets" json:"output_dir"`

	// Optional Redis-backed job store. When REDIS_ADDR is set the job
	// repository uses Redis instead of the per-job JSON files.
	RedisAddr     string `env:"REDIS_ADDR" json:"redis_addr,omitempty"`
	RedisPassword string `env:"REDIS_PASSWORD" json:"-"` // Masked in JSON
	RedisDB       int    `env:"REDIS_DB, default=0" json:"redis_db"`

	// Optional S3 settings for final asset upload
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Worker process settings
	WorkerBin string `env:"WORKER_BIN, default=creative-worker" json:"worker_bin"`

	// Brand kit file (YAML). Optional; requests are used as-is without it.
	BrandFile string `env:"BRAND_FILE" json:"brand_file,omitempty"`

	// Publishing settings
	YouTubeCredentialsFile string `env:"YOUTUBE_CREDENTIALS_FILE" json:"youtube_credentials_file,omitempty"`
	YouTubeTokenFile       string `env:"YOUTUBE_TOKEN_FILE" json:"youtube_token_file,omitempty"`
	YouTubePrivacy         string `env:"YOUTUBE_PRIVACY, default=private" json:"youtube_privacy"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// VeoEnabled returns true if the short-clip provider credential is set.
func (c *Config) VeoEnabled() bool { return c.GeminiAPIKey != "" }

// FalEnabled returns true if the long-form provider credential is set.
func (c *Config) FalEnabled() bool { return c.FalKey != "" }

// HeyGenEnabled returns true if the avatar provider credential is set.
func (c *Config) HeyGenEnabled() bool { return c.HeyGenAPIKey != "" }

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// RedisEnabled returns true if a Redis address is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// PublishEnabled returns true if YouTube publishing is configured.
func (c *Config) PublishEnabled() bool {
	return c.YouTubeCredentialsFile != "" && c.YouTubeTokenFile != ""
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.VeoEnabled() && !c.FalEnabled() && !c.HeyGenEnabled() {
		return ErrNoProviderConfigured
	}
	if c.PollIntervalSec <= 0 {
		return ErrPollIntervalInvalid
	}
	if c.PollMaxAttempts <= 0 {
		return ErrPollAttemptsInvalid
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, VeoModel: %s, FalModel: %s, ScriptModel: %s, PollIntervalSec: %d, PollMaxAttempts: %d, ScratchDir: %s, JobsDir: %s, OutputDir: %s, RedisAddr: %s, S3Bucket: %s, WorkerBin: %s, BrandFile: %s, LogFormat: %s, LogLevel: %s, veo: %t, fal: %t, heygen: %t}",
		c.Port,
		c.VeoModel,
		c.FalModel,
		c.ScriptModel,
		c.PollIntervalSec,
		c.PollMaxAttempts,
		c.ScratchDir,
		c.JobsDir,
		c.OutputDir,
		c.RedisAddr,
		c.S3Bucket,
		c.WorkerBin,
		c.BrandFile,
		c.LogFormat,
		c.LogLevel,
		c.VeoEnabled(),
		c.FalEnabled(),
		c.HeyGenEnabled(),
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
