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
	// ErrBotTokenRequired is returned when TELEGRAM_BOT_TOKEN is not set.
	ErrBotTokenRequired = errors.New("config: TELEGRAM_BOT_TOKEN is required")
	// ErrNoProviderKeys is returned when neither provider API key is set.
	ErrNoProviderKeys = errors.New("config: at least one of KIEAI_API_KEY or HEYGEN_API_KEY is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Provider settings
	KieAIAPIKey   string `env:"KIEAI_API_KEY" json:"-"` // Masked in JSON
	KieAIBaseURL  string `env:"KIEAI_BASE_URL, default=https://api.kie.ai" json:"kieai_base_url"`
	HeyGenAPIKey  string `env:"HEYGEN_API_KEY" json:"-"` // Masked in JSON
	HeyGenBaseURL string `env:"HEYGEN_BASE_URL, default=https://api.heygen.com" json:"heygen_base_url"`

	// Delivery settings
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN, required" json:"-"` // Masked in JSON

	// Polling settings
	PollInterval time.Duration `env:"POLL_INTERVAL, default=30s" json:"poll_interval"`
	TaskPacing   time.Duration `env:"TASK_PACING, default=3s" json:"task_pacing"`
	TaskTimeout  time.Duration `env:"TASK_TIMEOUT, default=30m" json:"task_timeout"`
	KlingTimeout time.Duration `env:"KLING_TIMEOUT, default=45m" json:"kling_timeout"`

	// Post-processing settings
	FFmpegPath string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	TempDir    string `env:"TEMP_DIR, default=/tmp/genflow" json:"temp_dir"`

	// Optional S3 archive settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Optional local archive directory, used when S3 is not configured.
	ArchiveDir string `env:"ARCHIVE_DIR" json:"archive_dir,omitempty"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 archive configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// KieAIEnabled returns true if the kie.ai providers can be used.
func (c *Config) KieAIEnabled() bool {
	return c.KieAIAPIKey != ""
}

// HeyGenEnabled returns true if the HeyGen provider can be used.
func (c *Config) HeyGenEnabled() bool {
	return c.HeyGenAPIKey != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "TELEGRAM_BOT_TOKEN") {
			return nil, ErrBotTokenRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return ErrBotTokenRequired
	}
	if !c.KieAIEnabled() && !c.HeyGenEnabled() {
		return ErrNoProviderKeys
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
		"Config{Port: %d, KieAIEnabled: %t, HeyGenEnabled: %t, PollInterval: %s, TaskPacing: %s, TaskTimeout: %s, KlingTimeout: %s, TempDir: %s, S3Bucket: %s, S3Region: %s, ArchiveDir: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.KieAIEnabled(),
		c.HeyGenEnabled(),
		c.PollInterval,
		c.TaskPacing,
		c.TaskTimeout,
		c.KlingTimeout,
		c.TempDir,
		c.S3Bucket,
		c.S3Region,
		c.ArchiveDir,
		c.LogFormat,
		c.LogLevel,
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
