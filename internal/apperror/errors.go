// Package apperror defines the error kinds surfaced by the minutes pipeline.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind names an error category for logs, metrics and responses
type Kind string

const (
	KindConfiguration     Kind = "configuration"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindAudioDecode       Kind = "audio_decode"
	KindRemoteService     Kind = "remote_service"
	KindCanceled          Kind = "canceled"
	KindInternal          Kind = "internal"
)

// ConfigurationError reports a missing or invalid setting at startup
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

// NewMissingSetting creates a ConfigurationError for a required setting that is absent
func NewMissingSetting(setting string) error {
	return &ConfigurationError{Setting: setting, Reason: "is required"}
}

// UnsupportedFormatError reports an input extension outside the accepted set
type UnsupportedFormatError struct {
	Extension string
	Accepted  []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported audio format: .%s (accepted: %v)", e.Extension, e.Accepted)
}

// AudioDecodeError reports that local normalization could not decode the input
type AudioDecodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *AudioDecodeError) Error() string {
	return fmt.Sprintf("failed to decode audio (%s) %s: %v", e.Format, e.Path, e.Err)
}

func (e *AudioDecodeError) Unwrap() error {
	return e.Err
}

// RemoteServiceError reports a failed outbound call.
// StatusCode is 0 when no HTTP response was received.
type RemoteServiceError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API failed: %d - %s", e.Service, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s API failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s API failed: %s", e.Service, e.Body)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient: transport errors,
// request timeouts, rate limiting and server errors. Canceled calls are not.
func (e *RemoteServiceError) Retryable() bool {
	if isContextError(e.Err) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return e.Err != nil
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// NewStatusError creates a RemoteServiceError for a non-success response
func NewStatusError(service string, status int, body []byte) error {
	return &RemoteServiceError{Service: service, StatusCode: status, Body: string(body)}
}

// NewTransportError creates a RemoteServiceError for a request that got no response
func NewTransportError(service string, err error) error {
	return &RemoteServiceError{Service: service, Err: err}
}

// NewMalformedResponse creates a RemoteServiceError for a body that could not be parsed
func NewMalformedResponse(service string, status int, body []byte, err error) error {
	return &RemoteServiceError{
		Service:    service,
		StatusCode: status,
		Body:       string(body),
		Err:        fmt.Errorf("unexpected response body: %w", err),
	}
}

// IsRetryable reports whether err wraps a retryable RemoteServiceError
func IsRetryable(err error) bool {
	var remote *RemoteServiceError
	if errors.As(err, &remote) {
		return remote.Retryable()
	}
	return false
}

// KindOf classifies err
func KindOf(err error) Kind {
	var (
		cfgErr    *ConfigurationError
		fmtErr    *UnsupportedFormatError
		decodeErr *AudioDecodeError
		remoteErr *RemoteServiceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &fmtErr):
		return KindUnsupportedFormat
	case errors.As(err, &decodeErr):
		return KindAudioDecode
	case isContextError(err):
		return KindCanceled
	case errors.As(err, &remoteErr):
		return KindRemoteService
	default:
		return KindInternal
	}
}

// HTTPStatus maps err to the status code returned by the HTTP front end
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case KindAudioDecode:
		return http.StatusUnprocessableEntity
	case KindRemoteService:
		return http.StatusBadGateway
	case KindCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func isContextError(err error) bool {
	return err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
