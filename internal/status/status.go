// Package status normalizes provider-specific status payloads into a
// single three-way lifecycle model. Normalizers are pure functions, one
// per provider family, and are deliberately conservative: any ambiguous,
// malformed, or unrecognized payload maps to Pending, never to Failed.
// Providers return transient intermediate payloads (queueing errors,
// "record not yet created") that are indistinguishable from genuine
// failures without an explicit, enumerated error signal.
package status

import (
	"encoding/json"
	"strings"
)

// State is the normalized outcome of one poll.
type State string

const (
	// StatePending means the job has not reached a terminal state.
	StatePending State = "pending"
	// StateCompleted means the job finished and a result URL is available.
	StateCompleted State = "completed"
	// StateFailed means the provider explicitly reported a failure.
	StateFailed State = "failed"
)

// Normalized is the uniform result of normalizing one raw status payload.
// It is produced fresh on every poll and never stored.
type Normalized struct {
	State State
	// ResultURL is the artifact locator, set only when State is Completed.
	ResultURL string
	// Reason is the provider's failure message, set only when State is Failed.
	Reason string
}

// Pending returns a Normalized in the pending state.
func Pending() Normalized {
	return Normalized{State: StatePending}
}

// Completed returns a Normalized carrying the result URL.
func Completed(url string) Normalized {
	return Normalized{State: StateCompleted, ResultURL: url}
}

// Failed returns a Normalized carrying the provider failure reason.
func Failed(reason string) Normalized {
	return Normalized{State: StateFailed, Reason: reason}
}

// IsTerminal returns true for Completed and Failed.
func (n Normalized) IsTerminal() bool {
	return n.State == StateCompleted || n.State == StateFailed
}

// rawString renders a raw JSON value as a plain string: quoted strings
// are unquoted, null and absent values become "", anything else is kept
// as its JSON text. Vendor error fields switch between strings and
// numbers across response variants.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
