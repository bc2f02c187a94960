package diarize

import (
	"context"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
	"github.com/rajin-khan/meetminsgen/internal/config"
	"github.com/rajin-khan/meetminsgen/internal/observability"
	"github.com/rajin-khan/meetminsgen/internal/resilience"
	"github.com/rajin-khan/meetminsgen/internal/transcript"
)

const deepgramService = "deepgram"

// utterance is the part of a Deepgram utterance used for speaker turns
type utterance struct {
	Start   float64
	End     float64
	Speaker *int
}

// DeepgramDiarizer gets speaker turns from Deepgram's prerecorded API
// with diarize and utterances enabled
type DeepgramDiarizer struct {
	rest    *api.Client
	model   string
	timeout time.Duration
	policy  *resilience.Policy
	logger  zerolog.Logger
}

// NewDeepgramDiarizer creates a prerecorded REST client for cfg.DeepgramAPIKey
func NewDeepgramDiarizer(cfg *config.Config, logger zerolog.Logger) (*DeepgramDiarizer, error) {
	if cfg.DeepgramAPIKey == "" {
		return nil, apperror.NewMissingSetting("DEEPGRAM_API_KEY")
	}
	logger = logger.With().Str("component", "diarize").Str("backend", deepgramService).Logger()

	listenClient.InitWithDefault()
	c := listenClient.NewREST(cfg.DeepgramAPIKey, &interfaces.ClientOptions{})

	return &DeepgramDiarizer{
		rest:    api.New(c),
		model:   cfg.DeepgramModel,
		timeout: cfg.Timeout(),
		policy:  resilience.NewPolicy(deepgramService, cfg, resilience.IsRetryableNetworkError, logger),
		logger:  logger,
	}, nil
}

// Diarize uploads audioPath and converts utterances to speaker turns
func (d *DeepgramDiarizer) Diarize(ctx context.Context, audioPath string) ([]transcript.Segment, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:      d.model,
		Punctuate:  true,
		Diarize:    true,
		Utterances: true,
	}

	var utterances []utterance
	err := d.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		res, err := d.rest.FromFile(callCtx, audioPath, options)
		if err != nil {
			observability.RecordRemoteRequest(deepgramService, false)
			return err
		}
		observability.RecordRemoteRequest(deepgramService, true)

		utterances = utterances[:0]
		if res.Results != nil {
			for _, u := range res.Results.Utterances {
				utterances = append(utterances, utterance{Start: u.Start, End: u.End, Speaker: u.Speaker})
			}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperror.NewTransportError(deepgramService, err)
	}

	turns := toTurns(utterances)
	d.logger.Info().Int("turns", len(turns)).Msg("Diarization complete")
	return turns, nil
}

// toTurns drops utterances without a speaker index
func toTurns(utterances []utterance) []transcript.Segment {
	turns := make([]transcript.Segment, 0, len(utterances))
	for _, u := range utterances {
		if u.Speaker == nil {
			continue
		}
		turns = append(turns, transcript.Segment{Start: u.Start, End: u.End, Speaker: speakerLabel(*u.Speaker)})
	}
	return turns
}
