package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
)

// ffmpegDecoder shells out to ffmpeg for containers beep cannot read (m4a, aac)
type ffmpegDecoder struct {
	binary string
}

func (d ffmpegDecoder) decode(ctx context.Context, inputPath, ext, outputPath string) (*NormalizedAudio, error) {
	// ffmpeg -y -i input -ac 1 -ar 16000 -sample_fmt s16 -f wav output
	cmd := exec.CommandContext(ctx, d.binary,
		"-hide_banner", "-loglevel", "error",
		"-y", "-i", inputPath,
		"-ac", strconv.Itoa(TargetChannels),
		"-ar", strconv.Itoa(TargetSampleRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			err = fmt.Errorf("%s not found in PATH, required for .%s input", d.binary, ext)
		} else if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return nil, &apperror.AudioDecodeError{Path: inputPath, Format: ext, Err: err}
	}

	na, err := probeWAV(outputPath)
	if err != nil {
		return nil, &apperror.AudioDecodeError{Path: inputPath, Format: ext, Err: fmt.Errorf("read converted wav: %w", err)}
	}
	return na, nil
}
