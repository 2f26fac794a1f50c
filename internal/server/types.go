// Package server provides the HTTP surface for the generation tracker.
// It includes handlers, middleware, routes, and DTOs separated from
// domain types.
package server

// TrackTaskRequest is the HTTP request body for registering a
// provider-accepted generation job.
type TrackTaskRequest struct {
	// TaskID is the provider-issued job identifier.
	TaskID string `json:"task_id" validate:"required"`
	// ChatID is the chat the outcome is delivered to.
	ChatID int64 `json:"chat_id" validate:"required"`
	// UserID is the submitting user, for audit logging.
	UserID int64 `json:"user_id"`
	// Kind is the provider kind, e.g. "sora2" or "veo3_fast".
	Kind string `json:"kind" validate:"required"`
	// Label is an optional human-readable description of the job.
	Label string `json:"label" validate:"max=256"`
}

// TrackTaskResponse is the HTTP response after registering a task.
type TrackTaskResponse struct {
	// TaskID echoes the registered identifier.
	TaskID string `json:"task_id"`
	// Kind is the normalized provider kind.
	Kind string `json:"kind"`
}

// CaptionWord is one timed word of a caption track.
type CaptionWord struct {
	// Text is the word itself.
	Text string `json:"text" validate:"required"`
	// Start is the word's onset in seconds from the video start.
	Start float64 `json:"start" validate:"min=0"`
	// End is the word's offset in seconds from the video start.
	End float64 `json:"end" validate:"min=0"`
}

// AttachCaptionsRequest is the HTTP request body for attaching a
// caption track to a tracked task.
type AttachCaptionsRequest struct {
	// Words is the timed transcript to render.
	Words []CaptionWord `json:"words" validate:"required,min=1,dive"`
	// Language is an optional BCP 47 language tag.
	Language string `json:"language"`
}

// AttachCaptionsResponse is the HTTP response after attaching captions.
type AttachCaptionsResponse struct {
	// TaskID echoes the task identifier.
	TaskID string `json:"task_id"`
	// Segments is the number of caption segments built from the words.
	Segments int `json:"segments"`
}

// TaskView is one tracked task in a listing.
type TaskView struct {
	// TaskID is the provider-issued job identifier.
	TaskID string `json:"task_id"`
	// Kind is the provider kind.
	Kind string `json:"kind"`
	// ChatID is the delivery chat.
	ChatID int64 `json:"chat_id"`
	// Label is the task's description, if any.
	Label string `json:"label,omitempty"`
	// HasCaptions reports whether a caption track is attached.
	HasCaptions bool `json:"has_captions"`
	// AgeSeconds is the time since the task was registered.
	AgeSeconds int64 `json:"age_seconds"`
}

// ListTasksResponse is the HTTP response for the task listing.
type ListTasksResponse struct {
	// Tasks is the current registry snapshot.
	Tasks []TaskView `json:"tasks"`
	// Count is the number of tracked tasks.
	Count int `json:"count"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
	// Tracked is the number of currently tracked tasks.
	Tracked int `json:"tracked"`
}
