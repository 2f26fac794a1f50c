package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dkhalov/genflow/internal/captions"
	"github.com/dkhalov/genflow/internal/task"
)

// Default polling parameters.
const (
	// DefaultPollInterval is the pause between full registry scans.
	DefaultPollInterval = 30 * time.Second
	// DefaultTaskPacing is the fixed spacing between provider calls
	// within one tick. Courtesy toward the providers, not a rate limit.
	DefaultTaskPacing = 3 * time.Second
	// DefaultTimeout is the wait budget for kinds without an override.
	DefaultTimeout = 30 * time.Minute
)

// ErrUnsupportedKind is returned by Submit when no gateway is configured
// for the task's provider kind.
var ErrUnsupportedKind = errors.New("tracker: no gateway for provider kind")

// Tracker is the entry point the rest of the application touches.
// It owns the registry and the background polling loop.
type Tracker struct {
	registry *task.Registry
	gateways map[task.Kind]Gateway
	pipeline *Pipeline
	logger   *slog.Logger

	interval time.Duration
	pacing   time.Duration
	timeouts map[task.Kind]time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithPollInterval sets the pause between registry scans.
func WithPollInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithTaskPacing sets the fixed spacing between provider calls within
// one tick.
func WithTaskPacing(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.pacing = d
		}
	}
}

// WithTimeout overrides the wait budget for one provider kind.
func WithTimeout(kind task.Kind, d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.timeouts[kind] = d
		}
	}
}

// New creates a Tracker over the given registry, per-kind gateways, and
// delivery pipeline. The loop is not started until Start is called.
func New(registry *task.Registry, gateways map[task.Kind]Gateway, pipeline *Pipeline, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		registry: registry,
		gateways: gateways,
		pipeline: pipeline,
		logger:   logger,
		interval: DefaultPollInterval,
		pacing:   DefaultTaskPacing,
		timeouts: make(map[task.Kind]time.Duration),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submit registers a provider-accepted job for tracking.
// Returns ErrUnsupportedKind when no gateway covers the job's kind and
// task.ErrDuplicateTask when the ID is already tracked.
func (t *Tracker) Submit(tk *task.Task) error {
	if _, ok := t.gateways[tk.Kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, tk.Kind)
	}
	if err := t.registry.Insert(tk); err != nil {
		return err
	}

	t.logger.Info("task registered",
		slog.String("task_id", tk.ID),
		slog.String("kind", string(tk.Kind)),
		slog.Int64("chat_id", tk.ChatID),
	)
	return nil
}

// AttachCaptions attaches a caption track to a tracked task. The track
// is consumed only if the task completes successfully; attaching after
// the task reached a terminal state returns task.ErrTaskNotFound.
func (t *Tracker) AttachCaptions(taskID string, track *captions.Track) error {
	return t.registry.AttachCaptions(taskID, track)
}

// Snapshot returns a copy of the currently tracked tasks.
func (t *Tracker) Snapshot() []*task.Task {
	return t.registry.Snapshot()
}

// Start launches the polling loop. Calling Start on a running tracker
// is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.loop(ctx)

	t.logger.Info("task polling started",
		slog.Duration("interval", t.interval),
	)
}

// Stop halts future ticks. The in-flight tick is abandoned at its next
// cancellation point; provider calls already on the wire are not
// interrupted. Stop is idempotent.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel == nil {
		return
	}

	t.cancel()
	t.cancel = nil
	<-t.done

	t.logger.Info("task polling stopped")
}

// timeoutFor returns the wait budget for a provider kind.
func (t *Tracker) timeoutFor(kind task.Kind) time.Duration {
	if d, ok := t.timeouts[kind]; ok {
		return d
	}
	return DefaultTimeout
}
