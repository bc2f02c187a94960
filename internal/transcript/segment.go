package transcript

import "strings"

// DefaultSpeaker is substituted when a segment has no speaker label
const DefaultSpeaker = "Speaker"

// Segment is one transcribed time interval of a recording
type Segment struct {
	// Start is seconds from the beginning of the recording
	Start float64 `json:"start"`

	// End is seconds from the beginning of the recording, End >= Start
	End float64 `json:"end"`

	// Text is the utterance for this interval, may be empty
	Text string `json:"text"`

	// Speaker is the optional speaker label, empty means unassigned
	Speaker string `json:"speaker,omitempty"`
}

// HasSpeaker reports whether a speaker label is assigned
func (s Segment) HasSpeaker() bool {
	return s.Speaker != ""
}

// Transcript is the result of one transcription request
type Transcript struct {
	// Text is the full transcript as returned by the speech-to-text service
	Text string `json:"text"`

	// Language is the detected language, if reported
	Language string `json:"language,omitempty"`

	// Segments are ordered by non-decreasing Start
	Segments []Segment `json:"segments"`
}

// Duration returns the end of the last segment in seconds, 0 when empty
func Duration(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}

// WordCount counts whitespace separated words across all segment texts
func WordCount(segments []Segment) int {
	total := 0
	for _, seg := range segments {
		total += len(strings.Fields(seg.Text))
	}
	return total
}
