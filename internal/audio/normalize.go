package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NormalizedAudio describes a recording converted to the canonical format
type NormalizedAudio struct {
	Path       string
	SampleRate int
	Channels   int
	Duration   time.Duration
	RMS        float64
}

// Normalizer converts an input recording to 16 kHz mono 16-bit WAV
type Normalizer interface {
	Normalize(ctx context.Context, inputPath string) (*NormalizedAudio, error)
}

// decoder converts one input file into a canonical WAV at outputPath
type decoder interface {
	decode(ctx context.Context, inputPath, ext, outputPath string) (*NormalizedAudio, error)
}

// Converter routes each accepted extension to a decoder.
// mp3, wav, flac and ogg are decoded in-process; m4a and aac go through ffmpeg.
type Converter struct {
	outputDir string
	decoders  map[string]decoder
	logger    zerolog.Logger
}

// NewConverter creates a Converter writing into outputDir.
// An empty outputDir writes next to the input file. ffmpegPath defaults to "ffmpeg".
func NewConverter(outputDir, ffmpegPath string, logger zerolog.Logger) *Converter {
	native := beepDecoder{}
	external := ffmpegDecoder{binary: ffmpegPath}
	if external.binary == "" {
		external.binary = "ffmpeg"
	}

	return &Converter{
		outputDir: outputDir,
		decoders: map[string]decoder{
			"mp3":  native,
			"wav":  native,
			"flac": native,
			"ogg":  native,
			"m4a":  external,
			"aac":  external,
		},
		logger: logger,
	}
}

// Normalize validates the extension of inputPath and converts it.
// The output is named "<base>_converted.wav".
func (c *Converter) Normalize(ctx context.Context, inputPath string) (*NormalizedAudio, error) {
	ext, err := CheckFormat(inputPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outputPath, err := c.outputPath(inputPath)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("input", inputPath).
		Str("format", ext).
		Msg(fmt.Sprintf("Converting %s to WAV", strings.ToUpper(ext)))

	na, err := c.decoders[ext].decode(ctx, inputPath, ext, outputPath)
	if err != nil {
		os.Remove(outputPath)
		return nil, err
	}

	ev := c.logger.Info()
	if IsSilent(na.RMS) {
		ev = c.logger.Warn()
	}
	ev.Str("output", na.Path).
		Dur("duration", na.Duration).
		Float64("rms", na.RMS).
		Msg("Audio normalized")

	return na, nil
}

func (c *Converter) outputPath(inputPath string) (string, error) {
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create audio directory: %w", err)
		}
	}
	return ConvertedPath(c.outputDir, inputPath), nil
}

// ConvertedPath names the normalized file for inputPath inside dir.
// An empty dir means the directory of inputPath.
func ConvertedPath(dir, inputPath string) string {
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, base+"_converted.wav")
}
