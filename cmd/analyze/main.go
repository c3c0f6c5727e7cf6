package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/adlens/adlens/internal/analysis"
	"github.com/adlens/adlens/internal/config"
	"github.com/adlens/adlens/internal/extract"
	"github.com/adlens/adlens/internal/logging"
	"github.com/adlens/adlens/internal/scene"
	"github.com/adlens/adlens/internal/transcribe"
	"github.com/adlens/adlens/internal/vision"
)

// One-shot analysis of a local video file. Runs the same pipeline as the
// server but without storage or persistence, printing the merged record as
// JSON to stdout.
func main() {
	videoPath := flag.String("video", "", "path to a local video file")
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if *videoPath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -video <path> [-config <path>]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.Logging.Level, true)

	if _, err := os.Stat(*videoPath); err != nil {
		fmt.Fprintf(os.Stderr, "cannot read video file: %v\n", err)
		os.Exit(1)
	}

	extractor, err := extract.NewExtractor(cfg.Storage.TempDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize media extraction: %v\n", err)
		os.Exit(1)
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

	record := pipeline.Run(context.Background(), uuid.New().String(), *videoPath)

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if record.Video == nil && record.Audio == nil {
		os.Exit(1)
	}
}
