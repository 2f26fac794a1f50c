// Package bootstrap provides dependency initialization for the tracker.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dkhalov/genflow/internal/archive"
	"github.com/dkhalov/genflow/internal/config"
	"github.com/dkhalov/genflow/internal/gateway"
	"github.com/dkhalov/genflow/internal/heygen"
	"github.com/dkhalov/genflow/internal/kieai"
	"github.com/dkhalov/genflow/internal/media"
	"github.com/dkhalov/genflow/internal/notify"
	"github.com/dkhalov/genflow/internal/task"
	"github.com/dkhalov/genflow/internal/tracker"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Tracker *tracker.Tracker
}

// NewDependencies creates and initializes all dependencies for the
// application. Gateways are only wired for providers whose API keys are
// configured; submitting a task for an unwired kind is rejected.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	gateways, err := initGateways(cfg, logger)
	if err != nil {
		return nil, err
	}

	notifier, err := notify.NewTelegram(
		notify.WithToken(cfg.TelegramBotToken),
		notify.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram notifier: %w", err)
	}

	burner := media.NewBurner(
		media.WithFFmpegPath(cfg.FFmpegPath),
		media.WithTempDir(cfg.TempDir),
	)

	store, err := initArchive(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := task.NewRegistry()
	pipeline := tracker.NewPipeline(registry, burner, store, notifier, logger)

	trk := tracker.New(registry, gateways, pipeline, logger,
		tracker.WithPollInterval(cfg.PollInterval),
		tracker.WithTaskPacing(cfg.TaskPacing),
		tracker.WithTimeout(task.KindSora, cfg.TaskTimeout),
		tracker.WithTimeout(task.KindVeo, cfg.TaskTimeout),
		tracker.WithTimeout(task.KindVeoFast, cfg.TaskTimeout),
		tracker.WithTimeout(task.KindHeyGen, cfg.TaskTimeout),
		tracker.WithTimeout(task.KindKlingAvatar, cfg.KlingTimeout),
		tracker.WithTimeout(task.KindKlingMotion, cfg.KlingTimeout),
	)

	return &Dependencies{Tracker: trk}, nil
}

// initGateways builds the per-kind status gateways for the configured
// providers.
func initGateways(cfg *config.Config, logger *slog.Logger) (map[task.Kind]tracker.Gateway, error) {
	gateways := make(map[task.Kind]tracker.Gateway)

	if cfg.KieAIEnabled() {
		client, err := kieai.NewClient(
			kieai.WithAPIKey(cfg.KieAIAPIKey),
			kieai.WithBaseURL(cfg.KieAIBaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("create kie.ai client: %w", err)
		}

		jobs := gateway.NewKieJobs(client, logger)
		veo := gateway.NewVeo(client, logger)

		gateways[task.KindSora] = jobs
		gateways[task.KindKlingAvatar] = jobs
		gateways[task.KindKlingMotion] = jobs
		gateways[task.KindVeo] = veo
		gateways[task.KindVeoFast] = veo
	}

	if cfg.HeyGenEnabled() {
		client, err := heygen.NewClient(
			heygen.WithAPIKey(cfg.HeyGenAPIKey),
			heygen.WithBaseURL(cfg.HeyGenBaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("create HeyGen client: %w", err)
		}
		gateways[task.KindHeyGen] = gateway.NewHeyGen(client, logger)
	}

	logger.Info("provider gateways configured",
		slog.Int("kinds", len(gateways)),
		slog.Bool("kieai", cfg.KieAIEnabled()),
		slog.Bool("heygen", cfg.HeyGenEnabled()),
	)

	return gateways, nil
}

// initArchive creates the archive backend based on configuration. When
// nothing is configured archiving is disabled entirely.
func initArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (tracker.Archive, error) {
	if cfg.S3Enabled() {
		s3Cfg := archive.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := archive.NewS3(ctx, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 archive: %w", err)
		}
		logger.Info("S3 archive configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	if cfg.ArchiveDir != "" {
		dirStore, err := archive.NewDir(cfg.ArchiveDir)
		if err != nil {
			return nil, fmt.Errorf("create directory archive: %w", err)
		}
		logger.Info("directory archive configured",
			slog.String("dir", cfg.ArchiveDir),
		)
		return dirStore, nil
	}

	logger.Info("archiving disabled")
	return nil, nil
}
