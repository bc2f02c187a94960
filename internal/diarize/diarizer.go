// Package diarize labels time ranges of a recording with speaker identities.
package diarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/config"
	"github.com/rajin-khan/meetminsgen/internal/transcript"
)

// Diarizer returns speaker turns for an audio file, ordered by start time.
// Turns carry Speaker and timing; Text is usually empty.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]transcript.Segment, error)
}

// Noop returns no turns, leaving every segment unlabeled.
type Noop struct{}

func (Noop) Diarize(ctx context.Context, audioPath string) ([]transcript.Segment, error) {
	return nil, ctx.Err()
}

// New selects the backend named by cfg.DiarizationBackend
func New(cfg *config.Config, logger zerolog.Logger) (Diarizer, error) {
	switch strings.ToLower(cfg.DiarizationBackend) {
	case config.DiarizationNone, "":
		return Noop{}, nil
	case config.DiarizationPyannote:
		return NewPyannoteClient(cfg, logger), nil
	case config.DiarizationDeepgram:
		d, err := NewDeepgramDiarizer(cfg, logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown diarization backend %q", cfg.DiarizationBackend)
	}
}

// speakerLabel renders a numeric speaker index as SPEAKER_00, SPEAKER_01, ...
func speakerLabel(n int) string {
	return fmt.Sprintf("SPEAKER_%02d", n)
}
