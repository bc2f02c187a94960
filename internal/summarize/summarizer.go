package summarize

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rajin-khan/meetminsgen/internal/llm"
	"github.com/rajin-khan/meetminsgen/internal/transcript"
)

// Result holds both summaries. It is only returned when both succeeded.
type Result struct {
	English string
	Bangla  string
}

// Summarizer issues the English and Bangla requests for one transcript
type Summarizer struct {
	completer llm.Completer
	logger    zerolog.Logger
}

// NewSummarizer creates a Summarizer backed by completer
func NewSummarizer(completer llm.Completer, logger zerolog.Logger) *Summarizer {
	return &Summarizer{
		completer: completer,
		logger:    logger.With().Str("component", "summarize").Logger(),
	}
}

// Summarize formats segments, builds both prompts and calls model once per
// language. The calls run concurrently; if either fails the other is canceled
// and no partial result is returned.
func (s *Summarizer) Summarize(ctx context.Context, segments []transcript.Segment, model string) (*Result, error) {
	formatted := transcript.Format(segments)
	promptEN, promptBN := BuildPrompts(formatted)

	s.logger.Info().
		Int("segments", len(segments)).
		Str("model", model).
		Msg("Requesting summaries")

	var res Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.completer.Complete(gctx, promptEN, model)
		if err != nil {
			s.logger.Error().Err(err).Str("language", "en").Msg("Summary request failed")
			return err
		}
		res.English = out
		return nil
	})
	g.Go(func() error {
		out, err := s.completer.Complete(gctx, promptBN, model)
		if err != nil {
			s.logger.Error().Err(err).Str("language", "bn").Msg("Summary request failed")
			return err
		}
		res.Bangla = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &res, nil
}
