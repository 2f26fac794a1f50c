package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkhalov/genflow/internal/captions"
	"github.com/dkhalov/genflow/internal/task"
	"github.com/dkhalov/genflow/internal/tracker"
)

func testTask() *task.Task {
	return &task.Task{
		ID:     "task-1",
		ChatID: 42,
		Kind:   task.KindSora,
		Label:  "dancing robot",
	}
}

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *Telegram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n, err := NewTelegram(
		WithToken("test-token"),
		WithBaseURL(srv.URL),
	)
	require.NoError(t, err)
	return n
}

func TestNewTelegramRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	_, err := NewTelegram()
	assert.ErrorIs(t, err, ErrBotTokenNotSet)
}

func TestDeliverSuccessByURL(t *testing.T) {
	var payload map[string]any
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendVideo", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	err := n.DeliverSuccess(context.Background(), testTask(),
		tracker.Artifact{URL: "https://cdn/v.mp4"}, "", false)
	require.NoError(t, err)

	assert.Equal(t, float64(42), payload["chat_id"])
	assert.Equal(t, "https://cdn/v.mp4", payload["video"])
	assert.Contains(t, payload["caption"], "Sora 2")
	assert.Contains(t, payload["caption"], "dancing robot")
	assert.Equal(t, "HTML", payload["parse_mode"])
}

func TestDeliverSuccessByFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burned.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0600))

	var gotVideo bool
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendVideo", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "42", r.FormValue("chat_id"))

		f, header, err := r.FormFile("video")
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		assert.Equal(t, "burned.mp4", header.Filename)
		gotVideo = true

		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	err := n.DeliverSuccess(context.Background(), testTask(),
		tracker.Artifact{Path: path}, "", true)
	require.NoError(t, err)
	assert.True(t, gotVideo)
}

func TestDeliverSuccessFallsBackToLink(t *testing.T) {
	var paths []string
	var lastPayload map[string]any
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "sendVideo") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"file too large"}`))
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&lastPayload))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	err := n.DeliverSuccess(context.Background(), testTask(),
		tracker.Artifact{URL: "https://cdn/big.mp4"}, "", false)
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.True(t, strings.HasSuffix(paths[0], "sendVideo"))
	assert.True(t, strings.HasSuffix(paths[1], "sendMessage"))
	assert.Contains(t, lastPayload["text"], "https://cdn/big.mp4")
}

func TestDeliverFailure(t *testing.T) {
	var payload map[string]any
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	err := n.DeliverFailure(context.Background(), testTask(), "quota exceeded")
	require.NoError(t, err)

	text, _ := payload["text"].(string)
	assert.Contains(t, text, "failed")
	assert.Contains(t, text, "quota exceeded")
}

func TestDeliverTimeout(t *testing.T) {
	var payload map[string]any
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	err := n.DeliverTimeout(context.Background(), testTask())
	require.NoError(t, err)

	text, _ := payload["text"].(string)
	assert.Contains(t, text, "longer than expected")
	assert.Contains(t, text, "manually")
	assert.NotContains(t, text, "failed", "a timeout must not read like a failure")
}

func TestAPIErrorSurfaced(t *testing.T) {
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"description":"bot was blocked by the user"}`))
	})

	err := n.DeliverFailure(context.Background(), testTask(), "reason")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "blocked")
}

func TestSuccessMessageEscapesHTML(t *testing.T) {
	tk := testTask()
	tk.Label = `<script>alert("x")</script>`
	msg := successMessage(tk, true)
	assert.NotContains(t, msg, "<script>")
	assert.Contains(t, msg, "&lt;script&gt;")
}

func TestSuccessMessageDegradedCaptions(t *testing.T) {
	tk := testTask()
	tk.Captions = &captions.Track{Segments: []captions.Segment{{Index: 1, Text: "hi"}}}

	withCaptions := successMessage(tk, true)
	assert.NotContains(t, withCaptions, "could not be applied")

	degraded := successMessage(tk, false)
	assert.Contains(t, degraded, "could not be applied")
}
