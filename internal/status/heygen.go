package status

import (
	"github.com/dkhalov/genflow/internal/heygen"
)

// NormalizeHeyGen maps a HeyGen video status envelope to a normalized
// status. HeyGen reports a single status string; everything outside the
// two terminal values (waiting, pending, processing) stays Pending.
func NormalizeHeyGen(env heygen.StatusEnvelope) Normalized {
	data := env.Data
	if data == nil {
		return Pending()
	}

	switch data.Status {
	case "completed":
		if data.VideoURL == "" {
			return Pending()
		}
		return Completed(data.VideoURL)
	case "failed":
		reason := rawString(data.Error)
		if reason == "" {
			reason = "generation failed"
		}
		return Failed(reason)
	default:
		return Pending()
	}
}
