package status

import (
	"github.com/dkhalov/genflow/internal/kieai"
)

// NormalizeVeo maps a Veo record-info envelope to a normalized status.
//
// A non-200 envelope code stays Pending: kie.ai answers 422 "record is
// null" while the task has not been registered yet and 422 "record
// status is not success" while it is still running, and other non-200
// codes are routinely transient queueing errors. Only successFlag
// carries a trustworthy verdict.
func NormalizeVeo(rec kieai.VeoRecord) Normalized {
	if rec.Code != 200 {
		return Pending()
	}

	data := rec.Data
	if data == nil || data.SuccessFlag == nil {
		return Pending()
	}

	switch *data.SuccessFlag {
	case 1:
		// Probe the known result locations in priority order; the
		// schema moves resultUrls between variants.
		url := firstURL(veoResultURLs(data))
		if url == "" {
			return Pending()
		}
		return Completed(url)
	case 0:
		reason := data.ErrorMessage
		if reason == "" {
			reason = rawString(data.ErrorCode)
		}
		if reason == "" {
			// Explicit failure flag without a message has been observed
			// on still-processing tasks.
			return Pending()
		}
		return Failed(reason)
	default:
		return Pending()
	}
}

// veoResultURLs returns the candidate result URLs in probe order.
func veoResultURLs(data *kieai.VeoRecordData) []string {
	var candidates []string
	if data.Response != nil {
		candidates = append(candidates, data.Response.ResultURLs...)
	}
	candidates = append(candidates, data.ResultURLs...)
	return candidates
}

// firstURL returns the first non-empty candidate.
func firstURL(candidates []string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
