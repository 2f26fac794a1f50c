package status

import (
	"encoding/json"
	"strings"

	"github.com/dkhalov/genflow/internal/kieai"
)

// Recognized state values of the unified jobs endpoint. Anything else,
// including an empty state, is treated as still pending.
var (
	kieSuccessStates = map[string]bool{"success": true, "completed": true, "done": true}
	kieFailureStates = map[string]bool{"failed": true, "fail": true, "error": true}
)

// NormalizeKieJob maps a unified jobs recordInfo envelope to a
// normalized status. Sora 2 and the Kling models share this endpoint.
func NormalizeKieJob(rec kieai.TaskRecord) Normalized {
	if rec.Code != 200 {
		return Pending()
	}

	data := rec.Data
	if data == nil {
		return Pending()
	}

	state := kieJobState(data)
	switch {
	case kieSuccessStates[state]:
		url := firstURL(kieResultURLs(data))
		if url == "" {
			return Pending()
		}
		return Completed(url)
	case kieFailureStates[state]:
		return Failed(kieFailureReason(data))
	default:
		return Pending()
	}
}

// kieJobState resolves the job state from its alternative fields.
func kieJobState(data *kieai.TaskRecordData) string {
	for _, s := range []string{data.State, data.Status, data.TaskStatus} {
		if s != "" {
			return strings.ToLower(s)
		}
	}
	return ""
}

// kieResultURLs returns the candidate result URLs in probe order:
// resultJson (string-encoded, then plain object), videoInfo.videoUrl,
// then the flat fields.
func kieResultURLs(data *kieai.TaskRecordData) []string {
	var candidates []string

	if result, ok := decodeResultJSON(data.ResultJSON); ok {
		candidates = append(candidates, result.ResultURLs...)
	}
	if data.VideoInfo != nil {
		candidates = append(candidates, data.VideoInfo.VideoURL)
	}
	candidates = append(candidates, data.VideoURL, data.VideoURLv2, data.URL)

	return candidates
}

// decodeResultJSON decodes the resultJson field, which is either a JSON
// object or a JSON-encoded string containing one.
func decodeResultJSON(raw json.RawMessage) (kieai.TaskResult, bool) {
	if len(raw) == 0 {
		return kieai.TaskResult{}, false
	}

	var result kieai.TaskResult
	if err := json.Unmarshal(raw, &result); err == nil {
		return result, true
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return kieai.TaskResult{}, false
	}
	if err := json.Unmarshal([]byte(encoded), &result); err != nil {
		return kieai.TaskResult{}, false
	}
	return result, true
}

// kieFailureReason resolves the failure message from its alternative
// fields, falling back to a generic reason.
func kieFailureReason(data *kieai.TaskRecordData) string {
	if data.FailMsg != "" {
		return data.FailMsg
	}
	if data.ErrorMessage != "" {
		return data.ErrorMessage
	}
	if reason := rawString(data.Error); reason != "" {
		return reason
	}
	return "generation failed"
}
