// Package minutes runs a recording through normalization, transcription,
// diarization and summarization.
package minutes

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
	"github.com/rajin-khan/meetminsgen/internal/audio"
	"github.com/rajin-khan/meetminsgen/internal/diarize"
	"github.com/rajin-khan/meetminsgen/internal/observability"
	"github.com/rajin-khan/meetminsgen/internal/stt"
	"github.com/rajin-khan/meetminsgen/internal/summarize"
	"github.com/rajin-khan/meetminsgen/internal/transcript"
)

// ProgressFunc is told when each stage starts
type ProgressFunc func(stage string)

// Processor wires the pipeline stages together
type Processor struct {
	normalizer  audio.Normalizer
	transcriber stt.Transcriber
	diarizer    diarize.Diarizer
	summarizer  *summarize.Summarizer
	model       string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewProcessor creates a Processor. A nil diarizer disables speaker labels.
func NewProcessor(
	normalizer audio.Normalizer,
	transcriber stt.Transcriber,
	diarizer diarize.Diarizer,
	summarizer *summarize.Summarizer,
	model string,
	logger zerolog.Logger,
) *Processor {
	if diarizer == nil {
		diarizer = diarize.Noop{}
	}
	return &Processor{
		normalizer:  normalizer,
		transcriber: transcriber,
		diarizer:    diarizer,
		summarizer:  summarizer,
		model:       model,
		now:         time.Now,
		logger:      logger,
	}
}

// WithClock replaces the clock used for Metadata.Timestamp
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Process turns the recording at inputPath into both summaries and metadata.
// Any failure other than diarization aborts the run with no partial result.
func (p *Processor) Process(ctx context.Context, inputPath string, progress ProgressFunc) (result *Result, err error) {
	logger := p.loggerFor(ctx)
	metrics := observability.NewJobMetrics()
	defer func() {
		metrics.Finish(err == nil)
		if err != nil {
			observability.RecordError(string(apperror.KindOf(err)), "minutes")
			logger.Error().Err(err).Str("kind", string(apperror.KindOf(err))).Msg("Processing failed")
		}
	}()
	if progress == nil {
		progress = func(string) {}
	}

	var normalized *audio.NormalizedAudio
	progress(observability.StageNormalize)
	err = metrics.ObserveStage(observability.StageNormalize, func() error {
		var err error
		normalized, err = p.normalizer.Normalize(ctx, inputPath)
		return err
	})
	if err != nil {
		return nil, err
	}

	var tr *transcript.Transcript
	progress(observability.StageTranscribe)
	err = metrics.ObserveStage(observability.StageTranscribe, func() error {
		var err error
		tr, err = p.transcriber.Transcribe(ctx, normalized.Path)
		return err
	})
	if err != nil {
		return nil, err
	}
	segments := tr.Segments

	if _, noop := p.diarizer.(diarize.Noop); !noop {
		progress(observability.StageDiarize)
		var turns []transcript.Segment
		derr := metrics.ObserveStage(observability.StageDiarize, func() error {
			var err error
			turns, err = p.diarizer.Diarize(ctx, normalized.Path)
			return err
		})
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case derr != nil:
			observability.RecordError(string(apperror.KindOf(derr)), "diarize")
			logger.Warn().Err(derr).Msg("Diarization failed, continuing without speaker labels")
		default:
			segments = transcript.AssignSpeakers(segments, turns)
		}
	}

	var summaries *summarize.Result
	progress(observability.StageSummarize)
	err = metrics.ObserveStage(observability.StageSummarize, func() error {
		var err error
		summaries, err = p.summarizer.Summarize(ctx, segments, p.model)
		return err
	})
	if err != nil {
		return nil, err
	}

	meta := NewMetadata(segments, p.now())
	metrics.RecordRecording(meta.DurationMinutes)

	logger.Info().
		Float64("duration_minutes", meta.DurationMinutes).
		Int("total_words", meta.TotalWords).
		Int("segments", len(segments)).
		Msg("Minutes generated")

	return &Result{
		SummaryEN: summaries.English,
		SummaryBN: summaries.Bangla,
		Metadata:  meta,
	}, nil
}

// loggerFor prefers a request-scoped logger carried by ctx
func (p *Processor) loggerFor(ctx context.Context) zerolog.Logger {
	l := observability.FromContext(ctx, p.logger)
	return l.With().Str("component", "minutes").Logger()
}
