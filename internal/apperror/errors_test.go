package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestRemoteServiceError_Message(t *testing.T) {
	err := NewStatusError("groq", 401, []byte(`{"error":"invalid key"}`))

	msg := err.Error()
	if !strings.Contains(msg, "401") || !strings.Contains(msg, `{"error":"invalid key"}`) {
		t.Errorf("Expected status and body in message, got %q", msg)
	}
}

func TestRemoteServiceError_Retryable(t *testing.T) {
	tests := []struct {
		name     string
		err      *RemoteServiceError
		expected bool
	}{
		{"bad request", &RemoteServiceError{StatusCode: 400}, false},
		{"unauthorized", &RemoteServiceError{StatusCode: 401}, false},
		{"request timeout", &RemoteServiceError{StatusCode: 408}, true},
		{"rate limited", &RemoteServiceError{StatusCode: 429}, true},
		{"server error", &RemoteServiceError{StatusCode: 503}, true},
		{"transport", &RemoteServiceError{Err: errors.New("connection reset")}, true},
		{"canceled", &RemoteServiceError{Err: context.Canceled}, false},
		{"deadline", &RemoteServiceError{Err: fmt.Errorf("post: %w", context.DeadlineExceeded)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Retryable(); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestKindOfAndHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"configuration", NewMissingSetting("GROQ_API_KEY"), KindConfiguration, http.StatusInternalServerError},
		{"format", &UnsupportedFormatError{Extension: "txt"}, KindUnsupportedFormat, http.StatusUnsupportedMediaType},
		{"decode", &AudioDecodeError{Format: "mp3", Err: errors.New("bad frame")}, KindAudioDecode, http.StatusUnprocessableEntity},
		{"remote wrapped", fmt.Errorf("summarize: %w", NewStatusError("groq", 500, nil)), KindRemoteService, http.StatusBadGateway},
		{"canceled", NewTransportError("groq", context.Canceled), KindCanceled, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, got)
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, got)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(fmt.Errorf("wrapped: %w", NewStatusError("groq", 502, nil))) {
		t.Error("Expected wrapped 502 to be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("Expected plain error to not be retryable")
	}
}
