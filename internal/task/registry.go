package task

import (
	"errors"
	"sync"

	"github.com/dkhalov/genflow/internal/captions"
)

// Static errors for registry operations.
var (
	// ErrDuplicateTask is returned when inserting a task whose ID is
	// already tracked.
	ErrDuplicateTask = errors.New("task: duplicate task id")
	// ErrTaskNotFound is returned when attaching to a task that is not
	// in the registry.
	ErrTaskNotFound = errors.New("task: task not found")
)

// Registry is the authoritative in-memory table of tracked tasks.
// It is safe for concurrent use; the lock is held only for map mutations
// and copies, never across I/O. Tasks do not survive a process restart.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*Task),
	}
}

// Insert adds a task to the registry.
// Returns ErrDuplicateTask if a task with the same ID is already tracked.
func (r *Registry) Insert(t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; ok {
		return ErrDuplicateTask
	}
	r.tasks[t.ID] = t.Clone()
	return nil
}

// AttachCaptions attaches a caption track to a tracked task.
// Returns ErrTaskNotFound if the task is not in the registry.
func (r *Registry) AttachCaptions(id string, track *captions.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	t.Captions = track.Clone()
	return nil
}

// Remove deletes a task from the registry.
// Removing an absent ID is a no-op; removal races between the poller and
// external callers are expected.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Snapshot returns a point-in-time copy of all tracked tasks.
// The returned tasks are clones; iteration order is not meaningful.
func (r *Registry) Snapshot() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		result = append(result, t.Clone())
	}
	return result
}

// Len returns the number of tracked tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
