package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
	"github.com/rajin-khan/meetminsgen/internal/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		GroqAPIKey:                 "test-key",
		GroqBaseURL:                baseURL,
		TranscriptionModel:         "whisper-large-v3-turbo",
		RequestTimeout:             5,
		RetryMaxAttempts:           3,
		RetryInitialBackoff:        1,
		CircuitBreakerMaxFailures:  10,
		CircuitBreakerResetTimeout: 30,
	}
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting_converted.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatalf("Failed to write audio: %v", err)
	}
	return path
}

func TestNewWhisperClient_MissingKey(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.GroqAPIKey = ""

	_, err := NewWhisperClient(cfg, zerolog.Nop())

	var cfgErr *apperror.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
}

func TestWhisperClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-large-v3-turbo" {
			t.Errorf("Expected model whisper-large-v3-turbo, got %q", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("Expected response_format verbose_json, got %q", got)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("Missing file field: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if header.Filename != "meeting_converted.wav" || string(data) != "RIFF....WAVE" {
			t.Errorf("Unexpected upload %s (%q)", header.Filename, data)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"text": "Hello everyone. Let's begin.",
			"language": "english",
			"duration": 9.5,
			"segments": [
				{"id": 0, "start": 0.0, "end": 4.2, "text": " Hello everyone.", "avg_logprob": -0.2},
				{"id": 1, "start": 65.0, "end": 70.0, "text": " Let's begin. "}
			]
		}`)
	}))
	defer server.Close()

	client, err := NewWhisperClient(testConfig(server.URL), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWhisperClient failed: %v", err)
	}

	tr, err := client.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if tr.Text != "Hello everyone. Let's begin." {
		t.Errorf("Unexpected text %q", tr.Text)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(tr.Segments))
	}
	if tr.Segments[0].Text != "Hello everyone." || tr.Segments[1].Text != "Let's begin." {
		t.Errorf("Expected trimmed segment text, got %q and %q", tr.Segments[0].Text, tr.Segments[1].Text)
	}
	if tr.Segments[1].Start != 65.0 || tr.Segments[1].End != 70.0 {
		t.Errorf("Unexpected timing %+v", tr.Segments[1])
	}
	if tr.Segments[0].HasSpeaker() {
		t.Error("Transcription segments should carry no speaker")
	}
}

func TestWhisperClient_NonSuccessStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Invalid API Key"}}`)
	}))
	defer server.Close()

	client, _ := NewWhisperClient(testConfig(server.URL), zerolog.Nop())
	_, err := client.Transcribe(context.Background(), writeAudio(t))

	var remote *apperror.RemoteServiceError
	if !errors.As(err, &remote) {
		t.Fatalf("Expected RemoteServiceError, got %v", err)
	}
	if remote.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", remote.StatusCode)
	}
	if remote.Body != `{"error":{"message":"Invalid API Key"}}` {
		t.Errorf("Expected verbatim body, got %q", remote.Body)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected no retry for 401, got %d calls", n)
	}
}

func TestWhisperClient_RetriesServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"text":"ok","segments":[{"start":0,"end":1,"text":"ok"}]}`)
	}))
	defer server.Close()

	client, _ := NewWhisperClient(testConfig(server.URL), zerolog.Nop())
	tr, err := client.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if len(tr.Segments) != 1 {
		t.Errorf("Expected 1 segment, got %d", len(tr.Segments))
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("Expected 3 calls, got %d", n)
	}
}

func TestWhisperClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	}))
	defer server.Close()

	client, _ := NewWhisperClient(testConfig(server.URL), zerolog.Nop())
	_, err := client.Transcribe(context.Background(), writeAudio(t))

	if apperror.KindOf(err) != apperror.KindRemoteService {
		t.Errorf("Expected remote service error, got %v", err)
	}
}

func TestWhisperClient_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request expected after cancellation")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, _ := NewWhisperClient(testConfig(server.URL), zerolog.Nop())
	_, err := client.Transcribe(ctx, writeAudio(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWhisperClient_MissingFile(t *testing.T) {
	client, _ := NewWhisperClient(testConfig("http://localhost"), zerolog.Nop())
	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "absent.wav"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}
