package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
	"github.com/rajin-khan/meetminsgen/internal/config"
	"github.com/rajin-khan/meetminsgen/internal/observability"
	"github.com/rajin-khan/meetminsgen/internal/resilience"
)

const serviceName = "summarization"

// ChatClient implements Completer using an OpenAI-compatible chat completions API
type ChatClient struct {
	apiKey      string
	apiURL      string
	temperature float64
	httpClient  *http.Client
	policy      *resilience.Policy
	logger      zerolog.Logger
}

// NewChatClient creates a new chat completions client
func NewChatClient(cfg *config.Config, logger zerolog.Logger) (*ChatClient, error) {
	if cfg.GroqAPIKey == "" {
		return nil, apperror.NewMissingSetting("GROQ_API_KEY")
	}
	logger = logger.With().Str("component", "llm").Logger()

	return &ChatClient{
		apiKey:      cfg.GroqAPIKey,
		apiURL:      strings.TrimRight(cfg.GroqBaseURL, "/") + "/chat/completions",
		temperature: cfg.SummaryTemperature,
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
		policy:      resilience.NewPolicy(serviceName, cfg, apperror.IsRetryable, logger),
		logger:      logger,
	}, nil
}

// Complete sends the persona and prompt as two messages and returns the
// content of the first choice
func (c *ChatClient) Complete(ctx context.Context, prompt, model string) (string, error) {
	jsonData, err := json.Marshal(ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: SystemPersona},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var content string
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		content, err = c.post(ctx, jsonData)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		err = apperror.NewTransportError(serviceName, err)
	}
	if err != nil {
		return "", err
	}

	c.logger.Debug().
		Str("model", model).
		Int("prompt_chars", len(prompt)).
		Int("completion_chars", len(content)).
		Msg("Completion received")
	return content, nil
}

func (c *ChatClient) post(ctx context.Context, jsonData []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordRemoteRequest(serviceName, false)
		return "", apperror.NewTransportError(serviceName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordRemoteRequest(serviceName, false)
		return "", apperror.NewTransportError(serviceName, err)
	}

	if resp.StatusCode != http.StatusOK {
		observability.RecordRemoteRequest(serviceName, false)
		return "", apperror.NewStatusError(serviceName, resp.StatusCode, raw)
	}

	var chat ChatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		observability.RecordRemoteRequest(serviceName, false)
		return "", apperror.NewMalformedResponse(serviceName, resp.StatusCode, raw, err)
	}
	content, ok := chat.content()
	if !ok {
		observability.RecordRemoteRequest(serviceName, false)
		return "", apperror.NewMalformedResponse(serviceName, resp.StatusCode, raw, errors.New("no message content in first choice"))
	}

	observability.RecordRemoteRequest(serviceName, true)
	return content, nil
}

// HealthCheck reports whether the client is configured and its circuit is closed
func (c *ChatClient) HealthCheck(ctx context.Context) (bool, error) {
	if c.policy.Breaker().GetState() == resilience.StateOpen {
		return false, fmt.Errorf("%s circuit breaker is open", serviceName)
	}
	return c.apiKey != "", nil
}
