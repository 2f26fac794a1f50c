// Package notify delivers terminal task outcomes to their owners over
// the Telegram Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dkhalov/genflow/internal/task"
	"github.com/dkhalov/genflow/internal/tracker"
)

// Static errors for the Telegram notifier.
var (
	// ErrBotTokenNotSet is returned when no bot token is configured.
	ErrBotTokenNotSet = errors.New("notify: telegram bot token not set")
	// ErrSendFailed is returned when the Bot API rejects a request.
	ErrSendFailed = errors.New("notify: telegram send failed")
)

const defaultBaseURL = "https://api.telegram.org"

// Telegram delivers outcomes via the Telegram Bot API. Videos are sent
// as native video messages; when that fails the notifier degrades to a
// text message with a download link.
type Telegram struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Telegram notifier.
type Option func(*Telegram)

// WithToken sets the bot token explicitly.
func WithToken(token string) Option {
	return func(t *Telegram) {
		t.token = token
	}
}

// WithBaseURL overrides the Bot API base URL. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(t *Telegram) {
		if baseURL != "" {
			t.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Telegram) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithLogger sets the logger for degraded-delivery warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Telegram) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTelegram creates a Telegram notifier. The token is taken from the
// TELEGRAM_BOT_TOKEN environment variable unless set via WithToken.
func NewTelegram(opts ...Option) (*Telegram, error) {
	t := &Telegram{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.token == "" {
		t.token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if t.token == "" {
		return nil, ErrBotTokenNotSet
	}

	return t, nil
}

// DeliverSuccess sends the finished video to the task's chat. A local
// artifact is uploaded directly; a remote one is sent by URL so
// Telegram fetches it server-side. Any send failure degrades to a link
// message.
func (t *Telegram) DeliverSuccess(ctx context.Context, tk *task.Task, a tracker.Artifact, archiveLocation string, captionsApplied bool) error {
	caption := successMessage(tk, captionsApplied)

	var err error
	switch {
	case a.Path != "":
		err = t.sendVideoFile(ctx, tk.ChatID, a.Path, caption)
	case a.URL != "":
		err = t.sendVideoURL(ctx, tk.ChatID, a.URL, caption)
	default:
		err = fmt.Errorf("%w: artifact has no source", ErrSendFailed)
	}
	if err == nil {
		return nil
	}

	t.logger.Warn("video delivery failed, falling back to link message",
		slog.String("task_id", tk.ID),
		slog.String("error", err.Error()),
	)

	link := a.URL
	if link == "" && strings.HasPrefix(archiveLocation, "http") {
		link = archiveLocation
	}
	return t.sendMessage(ctx, tk.ChatID, successLinkMessage(tk, link, captionsApplied))
}

// DeliverFailure sends the provider's failure reason to the task's chat.
func (t *Telegram) DeliverFailure(ctx context.Context, tk *task.Task, reason string) error {
	return t.sendMessage(ctx, tk.ChatID, failureMessage(tk, reason))
}

// DeliverTimeout tells the task's chat that tracking gave up.
func (t *Telegram) DeliverTimeout(ctx context.Context, tk *task.Task) error {
	return t.sendMessage(ctx, tk.ChatID, timeoutMessage(tk))
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// sendMessage posts an HTML text message.
func (t *Telegram) sendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	return t.postJSON(ctx, "sendMessage", payload)
}

// sendVideoURL asks Telegram to fetch and deliver a video by URL.
func (t *Telegram) sendVideoURL(ctx context.Context, chatID int64, videoURL, caption string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"video":      videoURL,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	return t.postJSON(ctx, "sendVideo", payload)
}

// sendVideoFile uploads a local video file as multipart form data.
func (t *Telegram) sendVideoFile(ctx context.Context, chatID int64, path, caption string) error {
	f, err := os.Open(path) // #nosec G304 - path is produced by the post-processing step
	if err != nil {
		return fmt.Errorf("open video file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fields := map[string]string{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"caption":    caption,
		"parse_mode": "HTML",
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("write form field: %w", err)
		}
	}

	part, err := w.CreateFormFile("video", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy video into form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	return t.post(ctx, "sendVideo", w.FormDataContentType(), &body)
}

// postJSON marshals the payload and posts it to a Bot API method.
func (t *Telegram) postJSON(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return t.post(ctx, method, "application/json", bytes.NewReader(body))
}

// post executes one Bot API call and checks the response envelope.
func (t *Telegram) post(ctx context.Context, method, contentType string, body io.Reader) error {
	url := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: status %d, undecodable body", ErrSendFailed, resp.StatusCode)
	}
	if !envelope.OK {
		return fmt.Errorf("%w: %s (status %d)", ErrSendFailed, envelope.Description, resp.StatusCode)
	}

	return nil
}

var _ tracker.Notifier = (*Telegram)(nil)
