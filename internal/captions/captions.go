// Package captions provides the caption track model attached to tracked
// tasks and its rendering into SRT and ASS subtitle formats.
package captions

import "strings"

// Segment is a single timed caption line.
type Segment struct {
	// Index is the 1-based position of the segment in the track.
	Index int `json:"index"`
	// Start is the segment start offset in seconds.
	Start float64 `json:"start"`
	// End is the segment end offset in seconds.
	End float64 `json:"end"`
	// Text is the caption text displayed for this segment.
	Text string `json:"text"`
}

// Track is an ordered list of caption segments covering one video.
type Track struct {
	Segments []Segment `json:"segments"`
	// Language is the BCP-47 language of the captions, informational only.
	Language string `json:"language,omitempty"`
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	segments := make([]Segment, len(t.Segments))
	copy(segments, t.Segments)
	return &Track{Segments: segments, Language: t.Language}
}

// Duration returns the end time of the last segment, in seconds.
func (t *Track) Duration() float64 {
	if t == nil || len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// Word is a single transcribed word with its timing, used as input
// when building a track from a word-level transcription.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// wordsPerSegment is the target number of words per caption line.
const wordsPerSegment = 4

// GroupWords builds a track from word-level timings, grouping words into
// short segments suitable for on-screen captions.
func GroupWords(words []Word) *Track {
	track := &Track{}

	var current []string
	var start, end float64
	index := 1

	for _, w := range words {
		if len(current) == 0 {
			start = w.Start
		}
		current = append(current, strings.TrimSpace(w.Text))
		end = w.End

		if len(current) >= wordsPerSegment {
			track.Segments = append(track.Segments, Segment{
				Index: index,
				Start: start,
				End:   end,
				Text:  joinWords(current),
			})
			index++
			current = current[:0]
		}
	}

	if len(current) > 0 {
		track.Segments = append(track.Segments, Segment{
			Index: index,
			Start: start,
			End:   end,
			Text:  joinWords(current),
		})
	}

	return track
}

func joinWords(words []string) string {
	return strings.Join(words, " ")
}
