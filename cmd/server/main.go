package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/audio"
	"github.com/rajin-khan/meetminsgen/internal/config"
	"github.com/rajin-khan/meetminsgen/internal/diarize"
	"github.com/rajin-khan/meetminsgen/internal/llm"
	"github.com/rajin-khan/meetminsgen/internal/minutes"
	"github.com/rajin-khan/meetminsgen/internal/observability"
	"github.com/rajin-khan/meetminsgen/internal/server"
	"github.com/rajin-khan/meetminsgen/internal/stt"
	"github.com/rajin-khan/meetminsgen/internal/summarize"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("diarization", cfg.DiarizationBackend).
		Str("summary_model", cfg.SummaryModel).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Meeting minutes service starting")

	transcriber, err := stt.NewWhisperClient(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create transcription client")
	}
	completer, err := llm.NewChatClient(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create summarization client")
	}
	diarizer, err := diarize.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create diarization client")
	}

	processor := minutes.NewProcessor(
		audio.NewConverter(cfg.TempDir, "", logger),
		transcriber,
		diarizer,
		summarize.NewSummarizer(completer, logger),
		cfg.SummaryModel,
		logger,
	)

	// Readiness checks validate configuration without calling paid APIs
	checks := map[string]observability.HealthCheckFunc{
		"transcription": transcriber.HealthCheck,
		"summarization": completer.HealthCheck,
	}
	if p, ok := diarizer.(*diarize.PyannoteClient); ok {
		checks["pyannote"] = p.HealthCheck
	}

	srv := server.New(cfg, processor, checks, logger)

	// Uploads and summaries can take minutes, so only headers are time boxed
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcHealth := startGRPCHealth(cfg, logger)

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s/transcribe", cfg.Port)).
			Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	if grpcHealth != nil {
		grpcHealth.SetServing(true)
	}

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	if grpcHealth != nil {
		grpcHealth.SetServing(false)
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if grpcHealth != nil {
		grpcHealth.Stop()
	}

	logger.Info().Msg("Server exited gracefully")
}

// startGRPCHealth serves grpc.health.v1 on GRPC_HEALTH_PORT unless it is "0"
func startGRPCHealth(cfg *config.Config, logger zerolog.Logger) *observability.GRPCHealthServer {
	if cfg.GRPCHealthPort == "" || cfg.GRPCHealthPort == "0" {
		return nil
	}

	health := observability.NewGRPCHealthServer(logger)
	go func() {
		if err := health.ListenAndServe(cfg.GRPCHealthPort); err != nil {
			logger.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()
	return health
}
