// Package task provides the GenerationTask entity tracked by the poller
// and the in-memory registry holding tasks between poll ticks.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/dkhalov/genflow/internal/captions"
)

// Kind identifies the generation backend a task was submitted to.
// It selects both the status gateway and the timeout budget.
type Kind string

const (
	// KindSora is OpenAI Sora 2 via the kie.ai jobs API.
	KindSora Kind = "sora2"
	// KindVeo is Google Veo 3.1 Quality via the kie.ai veo API.
	KindVeo Kind = "veo3"
	// KindVeoFast is Google Veo 3.1 Fast via the kie.ai veo API.
	KindVeoFast Kind = "veo3_fast"
	// KindKlingAvatar is Kling AI Avatar Pro via the kie.ai jobs API.
	KindKlingAvatar Kind = "kling_avatar"
	// KindKlingMotion is Kling 2.6 Motion Control via the kie.ai jobs API.
	KindKlingMotion Kind = "kling_motion"
	// KindHeyGen is HeyGen avatar video generation.
	KindHeyGen Kind = "heygen"
)

// ErrUnknownKind is returned when a string does not name a provider kind.
var ErrUnknownKind = errors.New("task: unknown provider kind")

// ParseKind converts a string into a Kind.
// Returns ErrUnknownKind for unrecognized values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// IsValid returns true if the kind is one of the known providers.
func (k Kind) IsValid() bool {
	switch k {
	case KindSora, KindVeo, KindVeoFast, KindKlingAvatar, KindKlingMotion, KindHeyGen:
		return true
	default:
		return false
	}
}

// DisplayName returns the human-readable model name used in notifications.
func (k Kind) DisplayName() string {
	switch k {
	case KindSora:
		return "Sora 2"
	case KindVeo:
		return "Veo 3.1 Quality"
	case KindVeoFast:
		return "Veo 3.1 Fast"
	case KindKlingAvatar:
		return "Kling AI Avatar"
	case KindKlingMotion:
		return "Kling Motion Control"
	case KindHeyGen:
		return "HeyGen"
	default:
		return string(k)
	}
}

// Task is one outstanding generation job accepted by a provider.
// The ID is assigned by the provider at submission and keys the registry;
// the task carries no status field, status is derived fresh on every poll.
type Task struct {
	// ID is the provider-assigned job identifier.
	ID string
	// ChatID addresses the conversation that requested the generation.
	// The tracker never interprets it, it is only passed to the notifier.
	ChatID int64
	// UserID is the requesting user, kept for logging.
	UserID int64
	// Kind is the generation backend, fixed at creation.
	Kind Kind
	// Label is a free-text description used in logs and notifications.
	Label string
	// Captions is an optional caption track to burn into the result.
	// When nil, post-processing is skipped.
	Captions *captions.Track
	// CreatedAt is when the provider accepted the job, used for the
	// timeout budget.
	CreatedAt time.Time
}

// Clone returns a deep copy of the task for safe reads outside the registry.
func (t *Task) Clone() *Task {
	clone := *t
	clone.Captions = t.Captions.Clone()
	return &clone
}
