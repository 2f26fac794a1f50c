package kieai

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

// Static errors for kie.ai client operations.
var (
	// ErrAPIKeyNotSet is returned when no API key is provided and the
	// KIEAI_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("kieai: API key is required")
	// ErrTaskIDRequired is returned when the task ID is not provided.
	ErrTaskIDRequired = errors.New("kieai: task ID is required")
	// ErrNoTaskIDReturned is returned when a submit response contains no task ID.
	ErrNoTaskIDReturned = errors.New("kieai: submit failed: no task ID returned")
	// ErrSubmitFailed is returned when the submit operation fails.
	ErrSubmitFailed = errors.New("kieai: submit failed")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("kieai: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("kieai: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("kieai: request failed")
)

// Client defines the interface for interacting with the kie.ai API.
type Client interface {
	// CreateTask submits a job to the unified jobs endpoint and returns
	// the provider task ID.
	CreateTask(ctx context.Context, req CreateTaskRequest) (taskID string, err error)

	// GenerateVeo submits a Veo 3.1 generation job and returns the task ID.
	GenerateVeo(ctx context.Context, req VeoGenerateRequest) (taskID string, err error)

	// TaskRecordInfo fetches the status envelope of a jobs-endpoint task.
	TaskRecordInfo(ctx context.Context, taskID string) (TaskRecord, error)

	// VeoRecordInfo fetches the status envelope of a Veo task.
	VeoRecordInfo(ctx context.Context, taskID string) (VeoRecord, error)
}

// HTTPClient is the HTTP implementation of the kie.ai Client interface.
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

// WithBaseURL sets a custom base URL for the kie.ai API.
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

// NewClient creates a new kie.ai HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable KIEAI_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:     "https://api.kie.ai",
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("KIEAI_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// CreateTask submits a job to the unified jobs endpoint.
func (c *HTTPClient) CreateTask(ctx context.Context, req CreateTaskRequest) (string, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("kieai: marshal request: %w", err)
	}

	var resp submitResponse
	endpoint := c.baseURL + "/api/v1/jobs/createTask"
	if err := c.doRequestWithRetry(ctx, http.MethodPost, endpoint, bodyBytes, &resp, false); err != nil {
		return "", err
	}

	if resp.Code != 200 {
		return "", fmt.Errorf("%w: code %d: %s", ErrSubmitFailed, resp.Code, resp.Msg)
	}
	if resp.Data.TaskID == "" {
		return "", ErrNoTaskIDReturned
	}

	return resp.Data.TaskID, nil
}

// GenerateVeo submits a Veo 3.1 generation job.
func (c *HTTPClient) GenerateVeo(ctx context.Context, req VeoGenerateRequest) (string, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("kieai: marshal request: %w", err)
	}

	var resp submitResponse
	endpoint := c.baseURL + "/api/v1/veo/generate"
	if err := c.doRequestWithRetry(ctx, http.MethodPost, endpoint, bodyBytes, &resp, false); err != nil {
		return "", err
	}

	if resp.Code != 200 {
		return "", fmt.Errorf("%w: code %d: %s", ErrSubmitFailed, resp.Code, resp.Msg)
	}
	if resp.Data.TaskID == "" {
		return "", ErrNoTaskIDReturned
	}

	return resp.Data.TaskID, nil
}

// TaskRecordInfo fetches the status envelope of a jobs-endpoint task.
func (c *HTTPClient) TaskRecordInfo(ctx context.Context, taskID string) (TaskRecord, error) {
	if taskID == "" {
		return TaskRecord{}, ErrTaskIDRequired
	}

	endpoint := fmt.Sprintf("%s/api/v1/jobs/recordInfo?taskId=%s", c.baseURL, url.QueryEscape(taskID))

	var rec TaskRecord
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &rec, true); err != nil {
		return TaskRecord{}, err
	}
	return rec, nil
}

// VeoRecordInfo fetches the status envelope of a Veo task.
func (c *HTTPClient) VeoRecordInfo(ctx context.Context, taskID string) (VeoRecord, error) {
	if taskID == "" {
		return VeoRecord{}, ErrTaskIDRequired
	}

	endpoint := fmt.Sprintf("%s/api/v1/veo/record-info?taskId=%s", c.baseURL, url.QueryEscape(taskID))

	var rec VeoRecord
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &rec, true); err != nil {
		return VeoRecord{}, err
	}
	return rec, nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, url string, body []byte, result any, lenient bool) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("kieai: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		err := c.doRequest(ctx, method, url, body, result, lenient)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("kieai: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
// When lenient is true, 4xx responses are decoded as a normal envelope:
// the status endpoints report job-level state in the body even on 422
// while the record does not exist yet.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result any, lenient bool) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("kieai: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("kieai: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("kieai: read response: %w", err)}
	}

	if resp.StatusCode >= 500 {
		return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
	}
	if (resp.StatusCode < 200 || resp.StatusCode >= 300) && !lenient {
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("kieai: unmarshal response: %w", err)
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
