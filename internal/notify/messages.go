package notify

import (
	"fmt"
	"html"

	"github.com/dkhalov/genflow/internal/task"
)

// successMessage builds the HTML caption for a finished video.
func successMessage(t *task.Task, captionsApplied bool) string {
	msg := fmt.Sprintf("✅ <b>%s</b> video is ready!", t.Kind.DisplayName())
	if t.Label != "" {
		msg += fmt.Sprintf("\n📝 %s", html.EscapeString(t.Label))
	}
	if t.Captions != nil && !captionsApplied {
		msg += "\n⚠️ Captions could not be applied, sending the original video."
	}
	return msg
}

// successLinkMessage is the fallback when the video itself cannot be
// delivered and only a link can be sent.
func successLinkMessage(t *task.Task, url string, captionsApplied bool) string {
	msg := successMessage(t, captionsApplied)
	if url != "" {
		msg += fmt.Sprintf("\n🔗 <a href=\"%s\">Download video</a>", url)
	}
	return msg
}

// failureMessage builds the HTML text for an explicit provider failure.
func failureMessage(t *task.Task, reason string) string {
	msg := fmt.Sprintf("❌ <b>%s</b> generation failed.", t.Kind.DisplayName())
	if t.Label != "" {
		msg += fmt.Sprintf("\n📝 %s", html.EscapeString(t.Label))
	}
	if reason != "" {
		msg += fmt.Sprintf("\nReason: %s", html.EscapeString(reason))
	}
	return msg
}

// timeoutMessage builds the HTML text for an exceeded wait budget. A
// timeout says nothing about the job's real outcome, so the text asks
// the owner to check the provider directly.
func timeoutMessage(t *task.Task) string {
	msg := fmt.Sprintf("⏰ <b>%s</b> generation is taking longer than expected.", t.Kind.DisplayName())
	if t.Label != "" {
		msg += fmt.Sprintf("\n📝 %s", html.EscapeString(t.Label))
	}
	msg += "\nTracking stopped. Please check the task status with the provider manually."
	return msg
}
