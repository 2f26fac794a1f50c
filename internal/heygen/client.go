package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Static errors for HeyGen client operations.
var (
	// ErrAPIKeyNotSet is returned when no API key is provided and the
	// HEYGEN_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("heygen: API key is required")
	// ErrVideoIDRequired is returned when the video ID is not provided.
	ErrVideoIDRequired = errors.New("heygen: video ID is required")
	// ErrNoVideoIDReturned is returned when the generate response contains no video ID.
	ErrNoVideoIDReturned = errors.New("heygen: generate failed: no video ID returned")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("heygen: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("heygen: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("heygen: request failed")
)

// Client defines the interface for interacting with the HeyGen API.
type Client interface {
	// Generate submits an avatar video job and returns the video ID.
	Generate(ctx context.Context, req GenerateRequest) (videoID string, err error)

	// VideoStatus fetches the status envelope of a video job.
	VideoStatus(ctx context.Context, videoID string) (StatusEnvelope, error)
}

// HTTPClient is the HTTP implementation of the HeyGen Client interface.
type HTTPClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the HeyGen API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = url
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseBackoff = d
	}
}

// NewClient creates a new HeyGen HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable HEYGEN_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:     "https://api.heygen.com",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("HEYGEN_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// Generate submits an avatar video job and returns the video ID.
func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("heygen: marshal request: %w", err)
	}

	var resp generateResponse
	endpoint := c.baseURL + "/v2/video/generate"
	if err := c.doRequestWithRetry(ctx, http.MethodPost, endpoint, bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.Data.VideoID == "" {
		return "", ErrNoVideoIDReturned
	}

	return resp.Data.VideoID, nil
}

// VideoStatus fetches the status envelope of a video job.
func (c *HTTPClient) VideoStatus(ctx context.Context, videoID string) (StatusEnvelope, error) {
	if videoID == "" {
		return StatusEnvelope{}, ErrVideoIDRequired
	}

	endpoint := fmt.Sprintf("%s/v1/video_status.get?video_id=%s", c.baseURL, url.QueryEscape(videoID))

	var env StatusEnvelope
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &env); err != nil {
		return StatusEnvelope{}, err
	}
	return env, nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, url string, body []byte, result any) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("heygen: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		err := c.doRequest(ctx, method, url, body, result)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("heygen: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("heygen: create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("heygen: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("heygen: read response: %w", err)}
	}

	if resp.StatusCode >= 500 {
		return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("heygen: unmarshal response: %w", err)
		}
	}

	return nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
