package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adlens/adlens/internal/analysis"
	"github.com/adlens/adlens/internal/api"
	"github.com/adlens/adlens/internal/config"
	"github.com/adlens/adlens/internal/database"
	"github.com/adlens/adlens/internal/extract"
	"github.com/adlens/adlens/internal/jobs"
	"github.com/adlens/adlens/internal/logging"
	"github.com/adlens/adlens/internal/scene"
	"github.com/adlens/adlens/internal/storage"
	"github.com/adlens/adlens/internal/transcribe"
	"github.com/adlens/adlens/internal/vision"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Console)

	localStorage, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	videoRepo := database.NewVideoRepository(db)
	analysisRepo := database.NewAnalysisRepo(db)

	extractor, err := extract.NewExtractor(cfg.Storage.TempDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media extraction")
	}

	var objects vision.ObjectDetector
	if cfg.Pipeline.EnableObjects {
		objects = vision.NewHTTPObjectDetector(cfg.Capabilities.ObjectEndpoint, cfg.Capabilities.ObjectMinConfidence)
	}
	var texts vision.TextDetector
	if cfg.Pipeline.EnableOCR {
		texts = vision.NewHTTPTextDetector(cfg.Capabilities.OCREndpoint, cfg.Capabilities.OCRMinConfidence)
	}
	var transcriber transcribe.Transcriber
	if cfg.Capabilities.WhisperEndpoint != "" {
		transcriber = transcribe.NewWhisperClient(cfg.Capabilities.WhisperEndpoint, cfg.Capabilities.WhisperModel)
	}

	videoAnalyzer := analysis.NewVideoAnalyzer(extractor, objects, texts, analysis.VideoConfig{
		TargetFPS:         cfg.Pipeline.TargetFPS,
		SceneFPS:          cfg.Pipeline.SceneFPS,
		MaxDimension:      cfg.Pipeline.MaxDimension,
		MaxFrames:         cfg.Pipeline.MaxFrames,
		KeyframeThreshold: cfg.Pipeline.KeyframeThreshold,
		Concurrency:       cfg.Pipeline.Concurrency,
		ColorClusters:     cfg.Pipeline.ColorClusters,
		Scene: scene.Config{
			Threshold:         cfg.Pipeline.SceneThreshold,
			MinSceneFrames:    cfg.Pipeline.MinSceneFrames,
			AdaptiveThreshold: cfg.Pipeline.AdaptiveThreshold,
		},
		EnableObjects:     cfg.Pipeline.EnableObjects,
		EnableOCR:         cfg.Pipeline.EnableOCR,
		EnableComposition: cfg.Pipeline.EnableComposition,
		EnableColor:       cfg.Pipeline.EnableColor,
	})
	audioAnalyzer := analysis.NewAudioAnalyzer(extractor, transcriber, analysis.AudioConfig{
		Language: cfg.Pipeline.Language,
	})
	pipeline := analysis.NewPipeline(videoAnalyzer, audioAnalyzer)

	runner := jobs.NewRunner(pipeline, localStorage, videoRepo, analysisRepo, 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner.Start(ctx, cfg.Pipeline.Workers)

	app := &api.App{
		Storage:       localStorage,
		VideoRepo:     videoRepo,
		AnalysisRepo:  analysisRepo,
		Jobs:          runner,
		MaxUploadSize: cfg.Server.MaxUploadBytes,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(app),
	}

	go func() {
		log.Info().Str("addr", addr).Str("upload_dir", cfg.Storage.UploadDir).
			Str("db", cfg.Database.Path).Int("workers", cfg.Pipeline.Workers).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	runner.Stop()
}
