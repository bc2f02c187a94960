package config

import (
	"errors"
	"os"
	"testing"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
)

func TestLoad(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-groq-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.GroqAPIKey != "test-groq-key" {
		t.Errorf("Expected GroqAPIKey 'test-groq-key', got '%s'", cfg.GroqAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	os.Unsetenv("GROQ_API_KEY")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("Expected error when GROQ_API_KEY is missing")
	}

	var cfgErr *apperror.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %T", err)
	}
	if cfgErr.Setting != "GROQ_API_KEY" {
		t.Errorf("Expected setting GROQ_API_KEY, got %s", cfgErr.Setting)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-groq-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.GroqBaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("Expected default GroqBaseURL, got '%s'", cfg.GroqBaseURL)
	}
	if cfg.TranscriptionModel != "whisper-large-v3-turbo" {
		t.Errorf("Expected default TranscriptionModel 'whisper-large-v3-turbo', got '%s'", cfg.TranscriptionModel)
	}
	if cfg.SummaryModel != "llama-3.3-70b-versatile" {
		t.Errorf("Expected default SummaryModel 'llama-3.3-70b-versatile', got '%s'", cfg.SummaryModel)
	}
	if cfg.SummaryTemperature != 0.4 {
		t.Errorf("Expected default SummaryTemperature 0.4, got %f", cfg.SummaryTemperature)
	}
	if cfg.DiarizationBackend != DiarizationNone {
		t.Errorf("Expected default DiarizationBackend 'none', got '%s'", cfg.DiarizationBackend)
	}
	if cfg.Port != "8000" {
		t.Errorf("Expected default Port '8000', got '%s'", cfg.Port)
	}
	if cfg.OutputDir != "output" {
		t.Errorf("Expected default OutputDir 'output', got '%s'", cfg.OutputDir)
	}
	if cfg.Timeout().Seconds() != 300 {
		t.Errorf("Expected default timeout 300s, got %v", cfg.Timeout())
	}
}

func TestLoad_DiarizationCredentials(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		env     map[string]string
		setting string
	}{
		{"pyannote without token", DiarizationPyannote, nil, "HF_TOKEN"},
		{"deepgram without key", DiarizationDeepgram, nil, "DEEPGRAM_API_KEY"},
		{"unknown backend", "whisperx", nil, "DIARIZATION_BACKEND"},
		{"pyannote with token", DiarizationPyannote, map[string]string{"HF_TOKEN": "hf"}, ""},
		{"deepgram with key", DiarizationDeepgram, map[string]string{"DEEPGRAM_API_KEY": "dg"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GROQ_API_KEY", "test-groq-key")
			t.Setenv("DIARIZATION_BACKEND", tt.backend)
			t.Setenv("HF_TOKEN", "")
			t.Setenv("DEEPGRAM_API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFromEnv()
			if tt.setting == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}

			var cfgErr *apperror.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigurationError, got %v", err)
			}
			if cfgErr.Setting != tt.setting {
				t.Errorf("Expected setting %s, got %s", tt.setting, cfgErr.Setting)
			}
		})
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-groq-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialBackoff != 500 {
		t.Errorf("Expected default RetryInitialBackoff 500, got %d", cfg.RetryInitialBackoff)
	}
	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}
	if cfg.CircuitBreakerResetTimeout != 30 {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30, got %d", cfg.CircuitBreakerResetTimeout)
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-groq-key")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " http://localhost:3000, ,https://minutes.example "}

	origins := cfg.AllowedOrigins()
	if len(origins) != 2 {
		t.Fatalf("Expected 2 origins, got %v", origins)
	}
	if origins[0] != "http://localhost:3000" || origins[1] != "https://minutes.example" {
		t.Errorf("Unexpected origins: %v", origins)
	}
}
