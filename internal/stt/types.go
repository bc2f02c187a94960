package stt

import (
	"context"

	"github.com/rajin-khan/meetminsgen/internal/transcript"
)

// Transcriber is the interface for speech-to-text clients
type Transcriber interface {
	// Transcribe uploads a normalized audio file and returns the full text
	// plus ordered segments carrying start, end and text
	Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error)
}

// verboseResponse is the subset of the verbose_json response that is used
type verboseResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []verboseSegment `json:"segments"`
}

type verboseSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
