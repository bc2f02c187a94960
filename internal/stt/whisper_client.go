package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
	"github.com/rajin-khan/meetminsgen/internal/config"
	"github.com/rajin-khan/meetminsgen/internal/observability"
	"github.com/rajin-khan/meetminsgen/internal/resilience"
	"github.com/rajin-khan/meetminsgen/internal/transcript"
)

const (
	serviceName = "transcription"

	// responseFormat requests segment timings alongside the text
	responseFormat = "verbose_json"
)

// WhisperClient implements Transcriber against an OpenAI-compatible
// /audio/transcriptions endpoint (Groq Whisper)
type WhisperClient struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
	policy     *resilience.Policy
	logger     zerolog.Logger
}

// NewWhisperClient creates a new transcription client.
// It fails with a ConfigurationError when no API key is configured.
func NewWhisperClient(cfg *config.Config, logger zerolog.Logger) (*WhisperClient, error) {
	if cfg.GroqAPIKey == "" {
		return nil, apperror.NewMissingSetting("GROQ_API_KEY")
	}
	logger = logger.With().Str("component", "stt").Logger()

	return &WhisperClient{
		apiKey:     cfg.GroqAPIKey,
		apiURL:     strings.TrimRight(cfg.GroqBaseURL, "/") + "/audio/transcriptions",
		model:      cfg.TranscriptionModel,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		policy:     resilience.NewPolicy(serviceName, cfg, apperror.IsRetryable, logger),
		logger:     logger,
	}, nil
}

// Transcribe uploads audioPath and returns the transcript
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	body, contentType, err := c.buildForm(audioPath)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("file", filepath.Base(audioPath)).
		Int("bytes", len(body)).
		Str("model", c.model).
		Msg("Uploading audio for transcription")

	var result verboseResponse
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		return c.post(ctx, body, contentType, &result)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		err = apperror.NewTransportError(serviceName, err)
	}
	if err != nil {
		return nil, err
	}

	tr := toTranscript(&result)
	c.logger.Info().
		Int("segments", len(tr.Segments)).
		Str("language", tr.Language).
		Msg("Transcription complete")
	return tr, nil
}

// buildForm encodes the multipart upload once so retries can resend it
func (c *WhisperClient) buildForm(audioPath string) ([]byte, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", fmt.Errorf("failed to read audio: %w", err)
	}
	if err := mw.WriteField("model", c.model); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("response_format", responseFormat); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (c *WhisperClient) post(ctx context.Context, body []byte, contentType string, out *verboseResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordRemoteRequest(serviceName, false)
		return apperror.NewTransportError(serviceName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordRemoteRequest(serviceName, false)
		return apperror.NewTransportError(serviceName, err)
	}

	if resp.StatusCode != http.StatusOK {
		observability.RecordRemoteRequest(serviceName, false)
		return apperror.NewStatusError(serviceName, resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		observability.RecordRemoteRequest(serviceName, false)
		return apperror.NewMalformedResponse(serviceName, resp.StatusCode, raw, err)
	}

	observability.RecordRemoteRequest(serviceName, true)
	return nil
}

// toTranscript keeps only start, end and text of each segment
func toTranscript(r *verboseResponse) *transcript.Transcript {
	tr := &transcript.Transcript{
		Text:     r.Text,
		Language: r.Language,
		Segments: make([]transcript.Segment, 0, len(r.Segments)),
	}
	for _, s := range r.Segments {
		end := s.End
		if end < s.Start {
			end = s.Start
		}
		tr.Segments = append(tr.Segments, transcript.Segment{
			Start: s.Start,
			End:   end,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return tr
}

// HealthCheck reports whether the client is configured.
// No request is made to avoid API costs.
func (c *WhisperClient) HealthCheck(ctx context.Context) (bool, error) {
	if c.policy.Breaker().GetState() == resilience.StateOpen {
		return false, fmt.Errorf("%s circuit breaker is open", serviceName)
	}
	return c.apiKey != "", nil
}
