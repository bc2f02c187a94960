package diarize

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

const pyannoteService = "pyannote"

// PyannoteClient calls a pyannote speaker-diarization HTTP sidecar
type PyannoteClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     *resilience.Policy
	logger     zerolog.Logger
}

type pyannoteResponse struct {
	Segments    []pyannoteSegment `json:"segments"`
	NumSpeakers int               `json:"num_speakers"`
	Error       string            `json:"error,omitempty"`
}

type pyannoteSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// NewPyannoteClient creates a client for the sidecar at cfg.PyannoteURL
func NewPyannoteClient(cfg *config.Config, logger zerolog.Logger) *PyannoteClient {
	logger = logger.With().Str("component", "diarize").Str("backend", pyannoteService).Logger()
	return &PyannoteClient{
		baseURL:    strings.TrimRight(cfg.PyannoteURL, "/"),
		token:      cfg.HFToken,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		policy:     resilience.NewPolicy(pyannoteService, cfg, apperror.IsRetryable, logger),
		logger:     logger,
	}
}

// IsAvailable checks if the sidecar is reachable
func (p *PyannoteClient) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// HealthCheck adapts IsAvailable to a readiness check
func (p *PyannoteClient) HealthCheck(ctx context.Context) (bool, error) {
	if !p.IsAvailable(ctx) {
		return false, fmt.Errorf("pyannote sidecar at %s is unreachable", p.baseURL)
	}
	return true, nil
}

// Diarize uploads audioPath to /diarize and returns the speaker turns
func (p *PyannoteClient) Diarize(ctx context.Context, audioPath string) ([]transcript.Segment, error) {
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}
	writer.Close()
	body, contentType := buf.Bytes(), writer.FormDataContentType()

	var result pyannoteResponse
	err = p.policy.Do(ctx, func(ctx context.Context) error {
		return p.post(ctx, body, contentType, &result)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		err = apperror.NewTransportError(pyannoteService, err)
	}
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, &apperror.RemoteServiceError{Service: pyannoteService, StatusCode: http.StatusOK, Body: result.Error}
	}

	turns := make([]transcript.Segment, 0, len(result.Segments))
	for _, s := range result.Segments {
		turns = append(turns, transcript.Segment{Start: s.Start, End: s.End, Speaker: s.Speaker})
	}

	p.logger.Info().
		Int("turns", len(turns)).
		Int("speakers", result.NumSpeakers).
		Msg("Diarization complete")
	return turns, nil
}

func (p *PyannoteClient) post(ctx context.Context, body []byte, contentType string, out *pyannoteResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/diarize", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		observability.RecordRemoteRequest(pyannoteService, false)
		return apperror.NewTransportError(pyannoteService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordRemoteRequest(pyannoteService, false)
		return apperror.NewTransportError(pyannoteService, err)
	}
	if resp.StatusCode != http.StatusOK {
		observability.RecordRemoteRequest(pyannoteService, false)
		return apperror.NewStatusError(pyannoteService, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		observability.RecordRemoteRequest(pyannoteService, false)
		return apperror.NewMalformedResponse(pyannoteService, resp.StatusCode, raw, err)
	}

	observability.RecordRemoteRequest(pyannoteService, true)
	return nil
}
