package audio

import (
	"context"
	"fmt"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
)

// resampleQuality trades speed for fidelity in beep.Resample (1..64)
const resampleQuality = 4

// beepDecoder decodes in-process with gopxl/beep, resamples to 16 kHz and
// mixes down to mono while encoding
type beepDecoder struct{}

func (beepDecoder) decode(ctx context.Context, inputPath, ext, outputPath string) (*NormalizedAudio, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, &apperror.AudioDecodeError{Path: inputPath, Format: ext, Err: err}
	}
	// Decoders take ownership of in and close it via the returned streamer

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case "mp3":
		streamer, format, err = mp3.Decode(in)
	case "wav":
		streamer, format, err = wav.Decode(in)
	case "flac":
		streamer, format, err = flac.Decode(in)
	case "ogg":
		streamer, format, err = vorbis.Decode(in)
	default:
		err = fmt.Errorf("no in-process decoder for .%s", ext)
	}
	if err != nil {
		in.Close()
		return nil, &apperror.AudioDecodeError{Path: inputPath, Format: ext, Err: err}
	}
	defer streamer.Close()

	if err := checkDecodedFormat(format); err != nil {
		return nil, &apperror.AudioDecodeError{Path: inputPath, Format: ext, Err: err}
	}

	return encodeCanonical(ctx, streamer, format, inputPath, ext, outputPath)
}

// checkDecodedFormat rejects headers the resampler cannot make progress on
func checkDecodedFormat(format beep.Format) error {
	if format.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", format.SampleRate)
	}
	if format.NumChannels < 1 {
		return fmt.Errorf("invalid channel count %d", format.NumChannels)
	}
	return nil
}

// encodeCanonical writes s as 16 kHz mono 16-bit WAV to outputPath
func encodeCanonical(ctx context.Context, s beep.Streamer, format beep.Format, inputPath, ext, outputPath string) (*NormalizedAudio, error) {
	target := beep.SampleRate(TargetSampleRate)

	var src beep.Streamer = s
	if format.SampleRate != target {
		src = beep.Resample(resampleQuality, format.SampleRate, target, s)
	}

	var (
		meter   levelMeter
		frames  int
		ctxErr  error
		checked int
	)
	counted := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		// Check for cancellation roughly once per second of output
		checked += len(samples)
		if checked >= TargetSampleRate {
			checked = 0
			if ctxErr = ctx.Err(); ctxErr != nil {
				return 0, false
			}
		}
		n, ok := src.Stream(samples)
		meter.add(samples[:n])
		frames += n
		return n, ok
	})

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer out.Close()

	outFormat := beep.Format{SampleRate: target, NumChannels: TargetChannels, Precision: TargetPrecision}
	if err := wav.Encode(out, counted, outFormat); err != nil {
		return nil, &apperror.AudioDecodeError{Path: inputPath, Format: ext, Err: err}
	}
	if ctxErr != nil {
		return nil, ctxErr
	}
	if err := src.Err(); err != nil {
		return nil, &apperror.AudioDecodeError{Path: inputPath, Format: ext, Err: err}
	}

	return &NormalizedAudio{
		Path:       outputPath,
		SampleRate: TargetSampleRate,
		Channels:   TargetChannels,
		Duration:   target.D(frames),
		RMS:        meter.rms(),
	}, nil
}

// probeWAV reads back a canonical WAV to measure its duration and level
func probeWAV(path string) (*NormalizedAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	defer s.Close()

	var meter levelMeter
	buf := make([][2]float64, 4096)
	for {
		n, ok := s.Stream(buf)
		meter.add(buf[:n])
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	return &NormalizedAudio{
		Path:       path,
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Duration:   format.SampleRate.D(s.Len()),
		RMS:        meter.rms(),
	}, nil
}
