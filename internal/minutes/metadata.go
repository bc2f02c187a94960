package minutes

import (
	"math"
	"time"

	"github.com/rajin-khan/meetminsgen/internal/transcript"
)

// TimestampLayout formats Metadata.Timestamp
const TimestampLayout = "2006-01-02 15:04"

// Metadata describes the processed recording
type Metadata struct {
	DurationMinutes float64 `json:"duration_minutes"`
	TotalWords      int     `json:"total_words"`
	Timestamp       string  `json:"timestamp"`
}

// Result is the output of one end-to-end run
type Result struct {
	SummaryEN string   `json:"summary_en"`
	SummaryBN string   `json:"summary_bn"`
	Metadata  Metadata `json:"metadata"`
}

// NewMetadata derives duration (end of the last segment, in minutes rounded to
// one decimal) and word count from segments
func NewMetadata(segments []transcript.Segment, now time.Time) Metadata {
	return Metadata{
		DurationMinutes: math.Round(transcript.Duration(segments)/60*10) / 10,
		TotalWords:      transcript.WordCount(segments),
		Timestamp:       now.Format(TimestampLayout),
	}
}
