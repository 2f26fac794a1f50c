package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dkhalov/genflow/internal/captions"
	"github.com/dkhalov/genflow/internal/task"
	"github.com/dkhalov/genflow/internal/tracker"
)

// Handlers contains the HTTP handlers for the tracker API.
type Handlers struct {
	tracker   *tracker.Tracker
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(trk *tracker.Tracker, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		tracker:   trk,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Tracked: len(h.tracker.Snapshot()),
	})
}

// TrackTask handles POST /tasks requests. The job must already be
// accepted by its provider; tracking starts on the next poll tick.
func (h *Handlers) TrackTask(w http.ResponseWriter, r *http.Request) {
	var req TrackTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	kind, err := task.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown provider kind: "+req.Kind, "UNKNOWN_KIND")
		return
	}

	t := &task.Task{
		ID:        req.TaskID,
		ChatID:    req.ChatID,
		UserID:    req.UserID,
		Kind:      kind,
		Label:     req.Label,
		CreatedAt: time.Now(),
	}

	if err := h.tracker.Submit(t); err != nil {
		switch {
		case errors.Is(err, task.ErrDuplicateTask):
			writeError(w, http.StatusConflict, "task is already tracked", "DUPLICATE_TASK")
		case errors.Is(err, tracker.ErrUnsupportedKind):
			writeError(w, http.StatusBadRequest, "no provider configured for kind: "+req.Kind, "UNSUPPORTED_KIND")
		default:
			h.logger.Error("failed to register task",
				slog.String("task_id", req.TaskID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to register task", "REGISTRATION_FAILED")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, TrackTaskResponse{
		TaskID: t.ID,
		Kind:   string(t.Kind),
	})
}

// AttachCaptions handles POST /tasks/{id}/captions requests. The words
// are grouped into display segments; the resulting track is burned into
// the video if the task completes while still tracked.
func (h *Handlers) AttachCaptions(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "task ID is required", "MISSING_TASK_ID")
		return
	}

	var req AttachCaptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	words := make([]captions.Word, 0, len(req.Words))
	for _, wd := range req.Words {
		words = append(words, captions.Word{
			Text:  wd.Text,
			Start: wd.Start,
			End:   wd.End,
		})
	}

	track := captions.GroupWords(words)
	track.Language = req.Language

	if err := h.tracker.AttachCaptions(taskID, track); err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task not found", "TASK_NOT_FOUND")
			return
		}
		h.logger.Error("failed to attach captions",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to attach captions", "CAPTIONS_FAILED")
		return
	}

	h.logger.Info("captions attached",
		slog.String("task_id", taskID),
		slog.Int("words", len(words)),
		slog.Int("segments", len(track.Segments)),
	)

	writeJSON(w, http.StatusOK, AttachCaptionsResponse{
		TaskID:   taskID,
		Segments: len(track.Segments),
	})
}

// ListTasks handles GET /tasks requests.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	views := make([]TaskView, 0, len(snapshot))
	for _, t := range snapshot {
		views = append(views, TaskView{
			TaskID:      t.ID,
			Kind:        string(t.Kind),
			ChatID:      t.ChatID,
			Label:       t.Label,
			HasCaptions: t.Captions != nil,
			AgeSeconds:  int64(time.Since(t.CreatedAt).Seconds()),
		})
	}

	writeJSON(w, http.StatusOK, ListTasksResponse{
		Tasks: views,
		Count: len(views),
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
