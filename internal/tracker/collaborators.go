// Package tracker implements the asynchronous generation-job tracker:
// an in-memory registry of provider jobs, a periodic poller that
// normalizes each provider's status into a single lifecycle model, and
// a delivery pipeline that post-processes, archives, and announces
// terminal results. Jobs do not survive a process restart; delivery is
// at-most-once.
package tracker

import (
	"context"

	"github.com/dkhalov/genflow/internal/captions"
	"github.com/dkhalov/genflow/internal/status"
	"github.com/dkhalov/genflow/internal/task"
)

// Gateway fetches and normalizes the status of one provider job.
// A returned error is transient by contract: the poller leaves the task
// untouched and retries on the next tick.
type Gateway interface {
	FetchStatus(ctx context.Context, taskID string) (status.Normalized, error)
}

// Artifact is the deliverable produced for a completed task: either the
// provider's result URL or a local file written by post-processing.
type Artifact struct {
	URL  string
	Path string
}

// PostProcessor transforms a finished artifact before delivery, e.g. by
// burning a caption track into the video. Failure degrades delivery to
// the unprocessed artifact, it never suppresses it.
type PostProcessor interface {
	Apply(ctx context.Context, resultURL string, track *captions.Track) (Artifact, error)
}

// Archive stores a copy of the final artifact and returns its location.
// Archive failures are logged and swallowed.
type Archive interface {
	Store(ctx context.Context, t *task.Task, a Artifact) (location string, err error)
}

// Notifier delivers terminal outcomes to the task's owner. All methods
// are best-effort; a delivery error is logged, never retried.
type Notifier interface {
	// DeliverSuccess announces a finished artifact. captionsApplied
	// reports whether the attached caption track made it into the
	// artifact, so the notifier can flag a degraded delivery.
	DeliverSuccess(ctx context.Context, t *task.Task, a Artifact, archiveLocation string, captionsApplied bool) error

	// DeliverFailure announces an explicit provider failure.
	DeliverFailure(ctx context.Context, t *task.Task, reason string) error

	// DeliverTimeout announces that the task exceeded its budget. A
	// timeout asserts nothing about whether the job actually failed,
	// so the wording asks the owner to check manually.
	DeliverTimeout(ctx context.Context, t *task.Task) error
}
