package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
)

// Diarization backends
const (
	DiarizationNone     = "none"
	DiarizationPyannote = "pyannote"
	DiarizationDeepgram = "deepgram"
)

// Config holds all process-wide configuration for the minutes service and CLI
type Config struct {
	// Groq (OpenAI-compatible) speech-to-text and chat completion
	GroqAPIKey         string  `envconfig:"GROQ_API_KEY"`
	GroqBaseURL        string  `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	TranscriptionModel string  `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-large-v3-turbo"`
	SummaryModel       string  `envconfig:"SUMMARY_MODEL" default:"llama-3.3-70b-versatile"`
	SummaryTemperature float64 `envconfig:"SUMMARY_TEMPERATURE" default:"0.4"`
	RequestTimeout     int     `envconfig:"REQUEST_TIMEOUT" default:"300"` // seconds, per outbound call

	// Speaker diarization
	DiarizationBackend string `envconfig:"DIARIZATION_BACKEND" default:"none"` // none, pyannote, deepgram
	HFToken            string `envconfig:"HF_TOKEN" default:""`
	PyannoteURL        string `envconfig:"PYANNOTE_URL" default:"http://localhost:8388"`
	DeepgramAPIKey     string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel      string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`

	// Server configuration
	Port               string `envconfig:"PORT" default:"8000"`
	GRPCHealthPort     string `envconfig:"GRPC_HEALTH_PORT" default:"50051"` // "0" disables the gRPC health server
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	MaxUploadMB        int64  `envconfig:"MAX_UPLOAD_MB" default:"200"`

	// Working directories
	TempDir   string `envconfig:"TEMP_DIR" default:"temp_audio"`
	OutputDir string `envconfig:"OUTPUT_DIR" default:"output"`

	// Resilience configuration
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // 1 disables retry
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"500"`        // milliseconds
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if it exists.
func Load() (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &apperror.ConfigurationError{Setting: "environment", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that required credentials are present for the selected backends
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GroqAPIKey) == "" {
		return apperror.NewMissingSetting("GROQ_API_KEY")
	}

	switch strings.ToLower(c.DiarizationBackend) {
	case DiarizationNone, "":
	case DiarizationPyannote:
		if c.HFToken == "" {
			return apperror.NewMissingSetting("HF_TOKEN")
		}
	case DiarizationDeepgram:
		if c.DeepgramAPIKey == "" {
			return apperror.NewMissingSetting("DEEPGRAM_API_KEY")
		}
	default:
		return &apperror.ConfigurationError{
			Setting: "DIARIZATION_BACKEND",
			Reason:  fmt.Sprintf("has unknown value %q", c.DiarizationBackend),
		}
	}

	if c.RetryMaxAttempts < 1 {
		return &apperror.ConfigurationError{Setting: "RETRY_MAX_ATTEMPTS", Reason: "must be at least 1"}
	}
	return nil
}

// Timeout returns the per-call timeout for outbound requests
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// AllowedOrigins splits CORSAllowedOrigins into trimmed, non-empty entries
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
