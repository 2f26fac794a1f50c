package tracker

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dkhalov/genflow/internal/status"
	"github.com/dkhalov/genflow/internal/task"
)

// loop runs ticks at the configured interval until the context is
// cancelled.
func (t *Tracker) loop(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// tick scans a snapshot of the registry and processes each task in
// snapshot order with a fixed pacing delay between provider calls.
func (t *Tracker) tick(ctx context.Context) {
	snapshot := t.registry.Snapshot()
	if len(snapshot) == 0 {
		return
	}

	t.logger.Debug("polling tasks", slog.Int("count", len(snapshot)))

	for i, tk := range snapshot {
		if ctx.Err() != nil {
			return
		}

		t.process(ctx, tk)

		if i < len(snapshot)-1 && t.pacing > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.pacing):
			}
		}
	}
}

// process handles one task for one tick: timeout check, status fetch,
// and terminal handoff. A panic is contained so one task can never take
// down the loop or the rest of the tick.
func (t *Tracker) process(ctx context.Context, tk *task.Task) {
	defer func() {
		if rec := recover(); rec != nil {
			t.logger.Error("task processing panic",
				slog.String("task_id", tk.ID),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if time.Since(tk.CreatedAt) > t.timeoutFor(tk.Kind) {
		t.pipeline.DeliverTimeout(ctx, tk)
		return
	}

	gw, ok := t.gateways[tk.Kind]
	if !ok {
		// Submit validates kinds, so this only happens if gateways were
		// reconfigured underneath a live registry.
		t.logger.Error("no gateway for tracked task",
			slog.String("task_id", tk.ID),
			slog.String("kind", string(tk.Kind)),
		)
		return
	}

	res, err := gw.FetchStatus(ctx, tk.ID)
	if err != nil {
		// Transient by contract: the task stays registered and is
		// retried on the next tick.
		t.logger.Warn("status fetch failed",
			slog.String("task_id", tk.ID),
			slog.String("kind", string(tk.Kind)),
			slog.String("error", err.Error()),
		)
		return
	}

	switch res.State {
	case status.StateCompleted:
		t.pipeline.DeliverSuccess(ctx, tk, res.ResultURL)
	case status.StateFailed:
		t.pipeline.DeliverFailure(ctx, tk, res.Reason)
	case status.StatePending:
		// Still waiting; reconsidered next tick with no memory of this
		// poll's payload.
	}
}
