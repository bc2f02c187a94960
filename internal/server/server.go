// Package server exposes the minutes pipeline over HTTP and websocket.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
	"github.com/rajin-khan/meetminsgen/internal/config"
	"github.com/rajin-khan/meetminsgen/internal/minutes"
	"github.com/rajin-khan/meetminsgen/internal/observability"
)

const correlationHeader = "X-Correlation-ID"

// Pipeline produces minutes for a recording on disk
type Pipeline interface {
	Process(ctx context.Context, inputPath string, progress minutes.ProgressFunc) (*minutes.Result, error)
}

// Server holds the HTTP handlers
type Server struct {
	cfg      *config.Config
	pipeline Pipeline
	checks   map[string]observability.HealthCheckFunc
	logger   zerolog.Logger
}

// New creates a Server. checks feed the /ready endpoint.
func New(cfg *config.Config, pipeline Pipeline, checks map[string]observability.HealthCheckFunc, logger zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		checks:   checks,
		logger:   logger.With().Str("component", "server").Logger(),
	}
}

// Handler returns the routed handler wrapped in CORS
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/transcribe", s.handleTranscribe)
	mux.HandleFunc("/streams/minutes", s.handleStream)

	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(s.checks))

	if s.cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	return withCORS(s.cfg.AllowedOrigins(), mux)
}

// requestLogger attaches a correlation ID to the request logger and response
func (s *Server) requestLogger(w http.ResponseWriter, r *http.Request) (zerolog.Logger, context.Context) {
	id := r.Header.Get(correlationHeader)
	if id == "" {
		id = observability.NewCorrelationID()
	}
	w.Header().Set(correlationHeader, id)

	logger := observability.WithCorrelationID(s.logger, id)
	return logger, observability.IntoContext(r.Context(), logger)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperror.HTTPStatus(err), errorResponse{Error: err.Error()})
}
