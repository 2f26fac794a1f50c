// Package kieai provides an HTTP client for the kie.ai generation API.
// It covers the unified jobs endpoints used by Sora 2 and the Kling
// models, and the dedicated Veo 3.1 endpoints, which use a different
// status schema.
package kieai

import "encoding/json"

// CreateTaskRequest is the request body for the unified jobs endpoint.
// Input carries the model-specific parameters verbatim.
type CreateTaskRequest struct {
	Model       string         `json:"model"`
	Input       map[string]any `json:"input"`
	CallbackURL string         `json:"callBackUrl,omitempty"`
}

// VeoGenerateRequest is the request body for the Veo generation endpoint.
type VeoGenerateRequest struct {
	Prompt            string   `json:"prompt"`
	Model             string   `json:"model"`
	AspectRatio       string   `json:"aspect_ratio,omitempty"`
	ImageURLs         []string `json:"imageUrls,omitempty"`
	GenerationType    string   `json:"generationType,omitempty"`
	EnableTranslation bool     `json:"enableTranslation"`
	CallbackURL       string   `json:"callBackUrl,omitempty"`
}

// submitResponse is the envelope returned by both submission endpoints.
type submitResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

// TaskRecord is the status envelope of the unified jobs endpoint.
// A non-200 Code is frequently transient (422 while the record does not
// exist yet), so the envelope is surfaced as data, not as an error.
type TaskRecord struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data *TaskRecordData `json:"data"`
}

// TaskRecordData carries the job state. The schema is inconsistent
// across response variants: the state and the result URL each appear
// under several alternative fields.
type TaskRecordData struct {
	TaskID     string `json:"taskId"`
	State      string `json:"state"`
	Status     string `json:"status"`
	TaskStatus string `json:"taskStatus"`

	// ResultJSON is either a JSON object or a JSON-encoded string,
	// both containing resultUrls.
	ResultJSON json.RawMessage `json:"resultJson"`
	VideoInfo  *TaskVideoInfo  `json:"videoInfo"`
	VideoURL   string          `json:"videoUrl"`
	VideoURLv2 string          `json:"video_url"`
	URL        string          `json:"url"`

	FailMsg      string          `json:"failMsg"`
	ErrorMessage string          `json:"errorMessage"`
	Error        json.RawMessage `json:"error"`
}

// TaskVideoInfo is the nested result block of some response variants.
type TaskVideoInfo struct {
	VideoURL string `json:"videoUrl"`
}

// TaskResult is the decoded form of TaskRecordData.ResultJSON.
type TaskResult struct {
	ResultURLs []string `json:"resultUrls"`
}

// VeoRecord is the status envelope of the Veo record-info endpoint.
type VeoRecord struct {
	Code int            `json:"code"`
	Msg  string         `json:"msg"`
	Data *VeoRecordData `json:"data"`
}

// VeoRecordData carries the Veo job state. SuccessFlag is a pointer:
// the field is absent while the job is still processing, and absence
// must not be confused with the explicit failure value 0.
type VeoRecordData struct {
	TaskID       string          `json:"taskId"`
	SuccessFlag  *int            `json:"successFlag"`
	Response     *VeoResponse    `json:"response"`
	ResultURLs   []string        `json:"resultUrls"`
	ErrorMessage string          `json:"errorMessage"`
	ErrorCode    json.RawMessage `json:"errorCode"`
}

// VeoResponse is the nested result block of the primary Veo variant.
type VeoResponse struct {
	ResultURLs []string `json:"resultUrls"`
}
