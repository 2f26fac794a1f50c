package task

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkhalov/genflow/internal/captions"
)

func newTestTask(id string) *Task {
	return &Task{
		ID:        id,
		ChatID:    100,
		Kind:      KindSora,
		CreatedAt: time.Now(),
	}
}

func TestRegistryInsertAndSnapshot(t *testing.T) {
	r := NewRegistry()

	if err := r.Insert(newTestTask("a")); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := r.Insert(newTestTask("b")); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	if got := r.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}

	snapshot := r.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Snapshot() returned %d tasks, want 2", len(snapshot))
	}
}

func TestRegistryInsertDuplicate(t *testing.T) {
	r := NewRegistry()

	if err := r.Insert(newTestTask("a")); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	err := r.Insert(newTestTask("a"))
	if !errors.Is(err, ErrDuplicateTask) {
		t.Errorf("Insert() duplicate error = %v, want ErrDuplicateTask", err)
	}
	if got := r.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1 after rejected duplicate", got)
	}
}

func TestRegistryInsertStoresClone(t *testing.T) {
	r := NewRegistry()

	original := newTestTask("a")
	if err := r.Insert(original); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	// Mutating the caller's task must not reach the registry.
	original.Label = "mutated"

	snapshot := r.Snapshot()
	if snapshot[0].Label != "" {
		t.Error("Insert() stored the caller's pointer instead of a clone")
	}
}

func TestRegistrySnapshotReturnsClones(t *testing.T) {
	r := NewRegistry()
	tk := newTestTask("a")
	tk.Captions = &captions.Track{
		Segments: []captions.Segment{{Index: 1, Start: 0, End: 1, Text: "hi"}},
	}
	if err := r.Insert(tk); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	first := r.Snapshot()
	first[0].Captions.Segments[0].Text = "tampered"

	second := r.Snapshot()
	if second[0].Captions.Segments[0].Text != "hi" {
		t.Error("Snapshot() exposes registry internals to mutation")
	}
}

func TestRegistryAttachCaptions(t *testing.T) {
	r := NewRegistry()
	if err := r.Insert(newTestTask("a")); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	track := &captions.Track{
		Segments: []captions.Segment{{Index: 1, Start: 0, End: 2, Text: "hello world"}},
	}
	if err := r.AttachCaptions("a", track); err != nil {
		t.Fatalf("AttachCaptions() error: %v", err)
	}

	// The registry must hold its own copy of the track.
	track.Segments[0].Text = "tampered"

	snapshot := r.Snapshot()
	if snapshot[0].Captions == nil {
		t.Fatal("AttachCaptions() did not attach the track")
	}
	if snapshot[0].Captions.Segments[0].Text != "hello world" {
		t.Error("AttachCaptions() stored the caller's track instead of a clone")
	}
}

func TestRegistryAttachCaptionsNotFound(t *testing.T) {
	r := NewRegistry()
	err := r.AttachCaptions("missing", &captions.Track{})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("AttachCaptions() error = %v, want ErrTaskNotFound", err)
	}
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	if err := r.Insert(newTestTask("a")); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	r.Remove("a")
	r.Remove("a") // second removal is a no-op
	r.Remove("never-existed")

	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("task-%d", n)
			_ = r.Insert(newTestTask(id))
			_ = r.Snapshot()
			_ = r.AttachCaptions(id, &captions.Track{})
			if n%2 == 0 {
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	if got := r.Len(); got != 25 {
		t.Errorf("Len() = %d, want 25", got)
	}
}
