package transcript

import (
	"fmt"
	"math"
	"strings"
)

// Format renders segments as dialogue lines of the form "[MM:SS] Speaker: text".
// Lines keep input order and are joined by a single newline. Surrounding
// whitespace of the result is trimmed, so an empty input yields "".
func Format(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = DefaultSpeaker
		}
		fmt.Fprintf(&b, "%s %s: %s\n", Timestamp(seg.Start), speaker, seg.Text)
	}
	return strings.TrimSpace(b.String())
}

// Timestamp formats seconds as "[MM:SS]" after truncating to whole seconds.
// Minutes are not wrapped into hours.
func Timestamp(seconds float64) string {
	total := int64(math.Floor(seconds))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("[%02d:%02d]", total/60, total%60)
}
