package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajin-khan/meetminsgen/internal/apperror"
	"github.com/rajin-khan/meetminsgen/internal/audio"
	"github.com/rajin-khan/meetminsgen/internal/config"
	"github.com/rajin-khan/meetminsgen/internal/diarize"
	"github.com/rajin-khan/meetminsgen/internal/llm"
	"github.com/rajin-khan/meetminsgen/internal/minutes"
	"github.com/rajin-khan/meetminsgen/internal/observability"
	"github.com/rajin-khan/meetminsgen/internal/stt"
	"github.com/rajin-khan/meetminsgen/internal/summarize"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run writes the output paths to stdout and everything else to stderr
func run(args []string, stdout, stderr io.Writer) int {
	var (
		inPath  string
		outDir  string
		timeout time.Duration
	)
	flags := flag.NewFlagSet("meetmins", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&inPath, "input", "", "Path to the meeting audio file (-i)")
	flags.StringVar(&inPath, "i", "", "Path to the meeting audio file")
	flags.StringVar(&outDir, "output", "", "Directory for the minutes files (-o, default OUTPUT_DIR)")
	flags.StringVar(&outDir, "o", "", "Directory for the minutes files")
	flags.DurationVar(&timeout, "timeout", 2*time.Hour, "Overall processing deadline")
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	if inPath == "" {
		fmt.Fprintln(stderr, "missing --input/-i audio path")
		flags.Usage()
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitFailed
	}
	if outDir == "" {
		outDir = cfg.OutputDir
	}

	observability.InitLoggerTo(stderr, cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	if _, err := os.Stat(inPath); err != nil {
		logger.Error().Err(err).Str("input", inPath).Msg("Input file not readable")
		return exitFailed
	}
	if _, err := audio.CheckFormat(inPath); err != nil {
		logger.Error().Err(err).Msg("Unsupported input")
		return exitFailed
	}

	transcriber, err := stt.NewWhisperClient(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create transcription client")
		return exitFailed
	}
	completer, err := llm.NewChatClient(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create summarization client")
		return exitFailed
	}
	diarizer, err := diarize.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create diarization client")
		return exitFailed
	}

	// The converted WAV is written next to the input
	processor := minutes.NewProcessor(
		audio.NewConverter("", "", logger),
		transcriber,
		diarizer,
		summarize.NewSummarizer(completer, logger),
		cfg.SummaryModel,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	result, err := processor.Process(ctx, inPath, func(stage string) {
		logger.Info().Str("stage", stage).Msg("Stage started")
	})
	if err != nil {
		var remote *apperror.RemoteServiceError
		if errors.As(err, &remote) {
			logger.Error().Str("service", remote.Service).Int("status", remote.StatusCode).Msg("Remote service failed")
		}
		fmt.Fprintf(stderr, "Failed to generate minutes: %v\n", err)
		return exitFailed
	}

	en, bn, err := minutes.WriteFiles(outDir, inPath, time.Now(), result)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to write minutes")
		return exitFailed
	}

	logger.Info().
		Str("english", en).
		Str("bangla", bn).
		Float64("duration_minutes", result.Metadata.DurationMinutes).
		Int("total_words", result.Metadata.TotalWords).
		Dur("elapsed", time.Since(started)).
		Msg("Minutes written")
	fmt.Fprintln(stdout, en)
	fmt.Fprintln(stdout, bn)
	return exitOK
}
