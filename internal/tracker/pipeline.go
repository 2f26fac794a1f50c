package tracker

import (
	"context"
	"log/slog"
	"os"

	"github.com/dkhalov/genflow/internal/task"
)

// Pipeline finalizes terminal tasks: optional post-processing, archival,
// owner notification, and unconditional removal from the registry.
// Removal is the last step of every branch regardless of notifier
// outcome; once it runs, no later tick can deliver the task again.
type Pipeline struct {
	registry *task.Registry
	post     PostProcessor
	archive  Archive
	notifier Notifier
	logger   *slog.Logger
}

// NewPipeline creates a delivery pipeline. post and archive may be nil;
// the corresponding steps are then skipped.
func NewPipeline(registry *task.Registry, post PostProcessor, archive Archive, notifier Notifier, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		registry: registry,
		post:     post,
		archive:  archive,
		notifier: notifier,
		logger:   logger,
	}
}

// DeliverSuccess finalizes a completed task.
// A post-processing failure falls back to the raw result URL; an archive
// failure is swallowed. Neither may block the success notification.
func (p *Pipeline) DeliverSuccess(ctx context.Context, t *task.Task, resultURL string) {
	defer p.registry.Remove(t.ID)

	artifact := Artifact{URL: resultURL}
	captionsApplied := false

	if p.post != nil && t.Captions != nil {
		processed, err := p.post.Apply(ctx, resultURL, t.Captions)
		if err != nil {
			p.logger.Warn("post-processing failed, delivering unprocessed artifact",
				slog.String("task_id", t.ID),
				slog.String("error", err.Error()),
			)
		} else {
			artifact = processed
			captionsApplied = true
		}
	}

	archiveLocation := ""
	if p.archive != nil {
		location, err := p.archive.Store(ctx, t, artifact)
		if err != nil {
			p.logger.Warn("archive failed",
				slog.String("task_id", t.ID),
				slog.String("error", err.Error()),
			)
		} else {
			archiveLocation = location
		}
	}

	if err := p.notifier.DeliverSuccess(ctx, t, artifact, archiveLocation, captionsApplied); err != nil {
		p.logger.Error("success notification failed",
			slog.String("task_id", t.ID),
			slog.String("error", err.Error()),
		)
	}

	p.cleanupArtifact(artifact)

	p.logger.Info("task completed",
		slog.String("task_id", t.ID),
		slog.String("kind", string(t.Kind)),
		slog.Bool("captions_applied", captionsApplied),
		slog.Bool("archived", archiveLocation != ""),
	)
}

// DeliverFailure finalizes a task the provider explicitly failed.
func (p *Pipeline) DeliverFailure(ctx context.Context, t *task.Task, reason string) {
	defer p.registry.Remove(t.ID)

	if err := p.notifier.DeliverFailure(ctx, t, reason); err != nil {
		p.logger.Error("failure notification failed",
			slog.String("task_id", t.ID),
			slog.String("error", err.Error()),
		)
	}

	p.logger.Info("task failed",
		slog.String("task_id", t.ID),
		slog.String("kind", string(t.Kind)),
		slog.String("reason", reason),
	)
}

// DeliverTimeout finalizes a task that exceeded its timeout budget.
func (p *Pipeline) DeliverTimeout(ctx context.Context, t *task.Task) {
	defer p.registry.Remove(t.ID)

	if err := p.notifier.DeliverTimeout(ctx, t); err != nil {
		p.logger.Error("timeout notification failed",
			slog.String("task_id", t.ID),
			slog.String("error", err.Error()),
		)
	}

	p.logger.Info("task timed out",
		slog.String("task_id", t.ID),
		slog.String("kind", string(t.Kind)),
	)
}

// cleanupArtifact removes the temporary file produced by post-processing.
func (p *Pipeline) cleanupArtifact(a Artifact) {
	if a.Path == "" {
		return
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("artifact cleanup failed",
			slog.String("path", a.Path),
			slog.String("error", err.Error()),
		)
	}
}
