// Command scribe runs the transcript enhancement service: it aligns
// reference transcripts against audio with word-level timestamps, verifies
// speakers via diarization, and stitches chunked recordings into one
// transcript with globally consistent speaker labels.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/scribe/audio"
	"github.com/skillsenselab/scribe/auth"
	"github.com/skillsenselab/scribe/config"
	"github.com/skillsenselab/scribe/diarization"
	"github.com/skillsenselab/scribe/diarization/pyannote"
	"github.com/skillsenselab/scribe/enhance"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/observability"
	"github.com/skillsenselab/scribe/server"
	"github.com/skillsenselab/scribe/server/middleware"
	"github.com/skillsenselab/scribe/transcription"
	"github.com/skillsenselab/scribe/transcription/whisperx"
	"github.com/skillsenselab/scribe/version"
)

func main() {
	var cfg config.Config
	if err := config.Load(config.ServiceName, &cfg); err != nil {
		logger.Fatal("failed to load configuration", logger.ErrorFields("config", err))
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", logger.ErrorFields("config", err))
	}

	logger.Init(cfg.Logging, config.ServiceName)
	log := logger.GetGlobalLogger()
	log.Info("starting", logger.Fields("version", version.Short()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Init(ctx, cfg.Observability, config.ServiceName, version.Get().Version)
	if err != nil {
		log.Fatal("failed to initialize telemetry", logger.ErrorFields("observability", err))
	}

	var metrics *observability.PipelineMetrics
	if cfg.Observability.Enabled {
		metrics, err = observability.NewPipelineMetrics()
		if err != nil {
			log.Fatal("failed to create metrics", logger.ErrorFields("observability", err))
		}
	}

	transcribers := transcription.NewManager()
	transcribers.Register(whisperx.ProviderName, whisperx.Factory())
	if err := transcribers.Initialize(whisperx.ProviderName, map[string]any{
		"base_url": cfg.Whisperx.BaseURL,
		"model":    cfg.Whisperx.Model,
		"language": cfg.Whisperx.Language,
		"timeout":  cfg.Whisperx.Timeout,
	}); err != nil {
		log.Fatal("failed to initialize transcription provider", logger.ErrorFields("whisperx", err))
	}

	diarizers := diarization.NewManager()
	diarizers.Register(pyannote.ProviderName, pyannote.Factory())
	if err := diarizers.Initialize(pyannote.ProviderName, map[string]any{
		"base_url": cfg.Pyannote.BaseURL,
		"timeout":  cfg.Pyannote.Timeout,
	}); err != nil {
		log.Fatal("failed to initialize diarization provider", logger.ErrorFields("pyannote", err))
	}

	svc := enhance.NewService(
		enhance.ServiceConfig{
			BoundaryWindow:      cfg.Enhance.BoundaryWindow,
			SimilarityThreshold: cfg.Enhance.SimilarityThreshold,
			Preprocess:          cfg.Enhance.Preprocess,
		},
		transcribers,
		diarizers,
		audio.NewPreprocessor(cfg.Audio),
		metrics,
	)
	handler := enhance.NewHandler(svc, cfg.Enhance.UploadDir, metrics)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	if cfg.Auth.Enabled {
		verifier, err := auth.NewVerifier(cfg.Auth)
		if err != nil {
			log.Fatal("failed to initialize auth", logger.ErrorFields("auth", err))
		}
		srv.GinEngine().Use(middleware.Auth(middleware.AuthConfig{
			TokenValidator: verifier.ValidatorFunc(),
			SkipPaths:      []string{"/health", "/info", "/metrics"},
		}))
	}
	srv.RegisterDefaultEndpoints(config.ServiceName, handler.HealthChecker())
	handler.RegisterRoutes(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		log.Fatal("failed to start server", logger.ErrorFields("server", err))
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("server shutdown failed", logger.ErrorFields("server", err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", logger.ErrorFields("observability", err))
	}
	log.Info("stopped")
	os.Exit(0)
}
