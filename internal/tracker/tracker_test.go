package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkhalov/genflow/internal/captions"
	"github.com/dkhalov/genflow/internal/status"
	"github.com/dkhalov/genflow/internal/task"
)

// fakeGateway returns a scripted sequence of results, repeating the
// last one once the script is exhausted.
type fakeGateway struct {
	mu      sync.Mutex
	script  []status.Normalized
	err     error
	calls   int
	panicky bool
}

func (g *fakeGateway) FetchStatus(ctx context.Context, taskID string) (status.Normalized, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.panicky {
		panic("gateway exploded")
	}
	if g.err != nil {
		return status.Normalized{}, g.err
	}
	idx := g.calls - 1
	if idx >= len(g.script) {
		idx = len(g.script) - 1
	}
	return g.script[idx], nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// recordingNotifier captures every delivery it receives.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
	timeouts  []string
	reasons   map[string]string
	artifacts map[string]Artifact
	applied   map[string]bool
	locations map[string]string
	err       error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		reasons:   make(map[string]string),
		artifacts: make(map[string]Artifact),
		applied:   make(map[string]bool),
		locations: make(map[string]string),
	}
}

func (n *recordingNotifier) DeliverSuccess(ctx context.Context, t *task.Task, a Artifact, archiveLocation string, captionsApplied bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, t.ID)
	n.artifacts[t.ID] = a
	n.applied[t.ID] = captionsApplied
	n.locations[t.ID] = archiveLocation
	return n.err
}

func (n *recordingNotifier) DeliverFailure(ctx context.Context, t *task.Task, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, t.ID)
	n.reasons[t.ID] = reason
	return n.err
}

func (n *recordingNotifier) DeliverTimeout(ctx context.Context, t *task.Task) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timeouts = append(n.timeouts, t.ID)
	return n.err
}

type fakePost struct {
	artifact Artifact
	err      error
	calls    int
}

func (p *fakePost) Apply(ctx context.Context, resultURL string, track *captions.Track) (Artifact, error) {
	p.calls++
	if p.err != nil {
		return Artifact{}, p.err
	}
	return p.artifact, nil
}

type fakeArchive struct {
	location string
	err      error
	calls    int
}

func (a *fakeArchive) Store(ctx context.Context, t *task.Task, art Artifact) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	return a.location, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTracker(gateways map[task.Kind]Gateway, notifier Notifier, opts ...Option) (*Tracker, *task.Registry) {
	registry := task.NewRegistry()
	pipeline := NewPipeline(registry, nil, nil, notifier, testLogger())
	opts = append([]Option{WithTaskPacing(0)}, opts...)
	trk := New(registry, gateways, pipeline, testLogger(), opts...)
	return trk, registry
}

func soraTask(id string) *task.Task {
	return &task.Task{
		ID:        id,
		ChatID:    7,
		Kind:      task.KindSora,
		CreatedAt: time.Now(),
	}
}

func TestSubmitUnsupportedKind(t *testing.T) {
	trk, registry := newTestTracker(map[task.Kind]Gateway{}, newRecordingNotifier())

	err := trk.Submit(soraTask("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Equal(t, 0, registry.Len())
}

func TestSubmitDuplicate(t *testing.T) {
	gw := &fakeGateway{script: []status.Normalized{status.Pending()}}
	trk, _ := newTestTracker(map[task.Kind]Gateway{task.KindSora: gw}, newRecordingNotifier())

	require.NoError(t, trk.Submit(soraTask("a")))
	err := trk.Submit(soraTask("a"))
	assert.ErrorIs(t, err, task.ErrDuplicateTask)
}

func TestAttachCaptionsUnknownTask(t *testing.T) {
	trk, _ := newTestTracker(map[task.Kind]Gateway{}, newRecordingNotifier())

	err := trk.AttachCaptions("missing", &captions.Track{})
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestTickPendingThenCompleted(t *testing.T) {
	gw := &fakeGateway{script: []status.Normalized{
		status.Pending(),
		status.Pending(),
		status.Completed("https://cdn/v.mp4"),
	}}
	notifier := newRecordingNotifier()
	trk, registry := newTestTracker(map[task.Kind]Gateway{task.KindSora: gw}, notifier)

	require.NoError(t, trk.Submit(soraTask("a")))

	ctx := context.Background()
	trk.tick(ctx)
	trk.tick(ctx)
	assert.Equal(t, 1, registry.Len(), "pending task must stay registered")
	assert.Empty(t, notifier.successes)

	trk.tick(ctx)
	assert.Equal(t, 0, registry.Len(), "completed task must be removed")
	assert.Equal(t, []string{"a"}, notifier.successes)
	assert.Equal(t, "https://cdn/v.mp4", notifier.artifacts["a"].URL)

	// A further tick finds nothing; the task cannot be delivered twice.
	trk.tick(ctx)
	assert.Equal(t, []string{"a"}, notifier.successes)
	assert.Equal(t, 3, gw.callCount())
}

func TestTickFailureDelivered(t *testing.T) {
	gw := &fakeGateway{script: []status.Normalized{status.Failed("bad prompt")}}
	notifier := newRecordingNotifier()
	trk, registry := newTestTracker(map[task.Kind]Gateway{task.KindSora: gw}, notifier)

	require.NoError(t, trk.Submit(soraTask("a")))
	trk.tick(context.Background())

	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, []string{"a"}, notifier.failures)
	assert.Equal(t, "bad prompt", notifier.reasons["a"])
}

func TestTickTimeout(t *testing.T) {
	gw := &fakeGateway{script: []status.Normalized{status.Pending()}}
	notifier := newRecordingNotifier()
	trk, registry := newTestTracker(map[task.Kind]Gateway{task.KindSora: gw}, notifier,
		WithTimeout(task.KindSora, time.Minute),
	)

	expired := soraTask("old")
	expired.CreatedAt = time.Now().Add(-2 * time.Minute)
	require.NoError(t, trk.Submit(expired))

	trk.tick(context.Background())

	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, []string{"old"}, notifier.timeouts)
	assert.Equal(t, 0, gw.callCount(), "an expired task must not be polled")
}

func TestTickTransientGatewayError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection reset")}
	notifier := newRecordingNotifier()
	trk, registry := newTestTracker(map[task.Kind]Gateway{task.KindSora: gw}, notifier)

	require.NoError(t, trk.Submit(soraTask("a")))
	trk.tick(context.Background())
	trk.tick(context.Background())

	assert.Equal(t, 1, registry.Len(), "gateway errors must not evict the task")
	assert.Empty(t, notifier.successes)
	assert.Empty(t, notifier.failures)
	assert.Equal(t, 2, gw.callCount())
}

func TestTickPanicContained(t *testing.T) {
	bad := &fakeGateway{panicky: true}
	good := &fakeGateway{script: []status.Normalized{status.Completed("https://cdn/ok.mp4")}}
	notifier := newRecordingNotifier()
	trk, registry := newTestTracker(map[task.Kind]Gateway{
		task.KindSora:   bad,
		task.KindHeyGen: good,
	}, notifier)

	require.NoError(t, trk.Submit(soraTask("boom")))
	healthy := soraTask("ok")
	healthy.Kind = task.KindHeyGen
	require.NoError(t, trk.Submit(healthy))

	trk.tick(context.Background())

	assert.Equal(t, []string{"ok"}, notifier.successes, "a panicking task must not block others")
	assert.Equal(t, 1, registry.Len(), "the panicking task stays for the next tick")
}

func TestTimeoutFor(t *testing.T) {
	trk, _ := newTestTracker(map[task.Kind]Gateway{}, newRecordingNotifier(),
		WithTimeout(task.KindKlingAvatar, 45*time.Minute),
	)

	assert.Equal(t, 45*time.Minute, trk.timeoutFor(task.KindKlingAvatar))
	assert.Equal(t, DefaultTimeout, trk.timeoutFor(task.KindSora))
}

func TestStartStopIdempotent(t *testing.T) {
	gw := &fakeGateway{script: []status.Normalized{status.Pending()}}
	trk, _ := newTestTracker(map[task.Kind]Gateway{task.KindSora: gw}, newRecordingNotifier(),
		WithPollInterval(time.Hour),
	)

	trk.Start()
	trk.Start() // second Start is a no-op
	trk.Stop()
	trk.Stop() // second Stop is a no-op

	// Restart works after a full stop.
	trk.Start()
	trk.Stop()
}
