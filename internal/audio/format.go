package audio

import (
	"path/filepath"
	"strings"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
)

// Canonical output format expected by the speech-to-text service
const (
	TargetSampleRate = 16000
	TargetChannels   = 1
	TargetPrecision  = 2 // bytes per sample, 16-bit PCM
)

// AcceptedExtensions lists the input formats that can be normalized
var AcceptedExtensions = []string{"mp3", "m4a", "aac", "flac", "ogg", "wav"}

// Extension returns the lower-cased extension of path without the dot
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// CheckFormat returns the extension of path, or an UnsupportedFormatError
// when it is not in AcceptedExtensions
func CheckFormat(path string) (string, error) {
	ext := Extension(path)
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return ext, nil
		}
	}
	return "", &apperror.UnsupportedFormatError{Extension: ext, Accepted: AcceptedExtensions}
}
