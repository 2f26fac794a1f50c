package heygen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL),
		WithMaxRetries(2),
		WithBaseBackoff(time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("HEYGEN_API_KEY", "")
	_, err := NewClient()
	assert.ErrorIs(t, err, ErrAPIKeyNotSet)
}

func TestGenerate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/video/generate", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.VideoInputs, 1)

		_, _ = w.Write([]byte(`{"data":{"video_id":"vid-42"}}`))
	})

	videoID, err := c.Generate(context.Background(), GenerateRequest{
		Title: "greeting",
		VideoInputs: []VideoInput{{
			Character: Character{Type: "avatar", AvatarID: "anna", AvatarStyle: "normal"},
			Voice:     Voice{Type: "text", InputText: "hello", VoiceID: "v1"},
		}},
		Dimension: Dimension{Width: 1080, Height: 1920},
	})
	require.NoError(t, err)
	assert.Equal(t, "vid-42", videoID)
}

func TestGenerateMissingVideoID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	_, err := c.Generate(context.Background(), GenerateRequest{})
	assert.ErrorIs(t, err, ErrNoVideoIDReturned)
}

func TestVideoStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/video_status.get", r.URL.Path)
		assert.Equal(t, "vid-42", r.URL.Query().Get("video_id"))
		_, _ = w.Write([]byte(`{"code":100,"data":{"id":"vid-42","status":"completed","video_url":"https://cdn/h.mp4"}}`))
	})

	env, err := c.VideoStatus(context.Background(), "vid-42")
	require.NoError(t, err)
	require.NotNil(t, env.Data)
	assert.Equal(t, "completed", env.Data.Status)
	assert.Equal(t, "https://cdn/h.mp4", env.Data.VideoURL)
}

func TestVideoStatusRequiresID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.VideoStatus(context.Background(), "")
	assert.ErrorIs(t, err, ErrVideoIDRequired)
}

func TestVideoStatusClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.VideoStatus(context.Background(), "vid-42")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestVideoStatusRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"code":100,"data":{"id":"vid-42","status":"processing"}}`))
	})

	env, err := c.VideoStatus(context.Background(), "vid-42")
	require.NoError(t, err)
	assert.Equal(t, "processing", env.Data.Status)
	assert.Equal(t, int32(2), calls.Load())
}
