package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/adlens/adlens/internal/config"
	"github.com/adlens/adlens/internal/transcribe"
	"github.com/adlens/adlens/internal/vision"
)

// Verifies that the external dependencies the pipeline needs are reachable:
// the ffmpeg binaries on PATH and any capability services configured in
// config.yaml or the environment.
func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	failed := false

	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		path, err := exec.LookPath(bin)
		if err != nil {
			fmt.Printf("✗ %s: not found on PATH\n", bin)
			failed = true
			continue
		}
		fmt.Printf("✓ %s: %s\n", bin, path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if cfg.Pipeline.EnableObjects {
		detector := vision.NewHTTPObjectDetector(cfg.Capabilities.ObjectEndpoint, cfg.Capabilities.ObjectMinConfidence)
		if err := detector.EnsureLoaded(ctx); err != nil {
			fmt.Printf("✗ object detection (%s): %v\n", cfg.Capabilities.ObjectEndpoint, err)
			failed = true
		} else {
			fmt.Printf("✓ object detection: %s\n", cfg.Capabilities.ObjectEndpoint)
		}
	} else {
		fmt.Println("- object detection: disabled")
	}

	if cfg.Pipeline.EnableOCR {
		detector := vision.NewHTTPTextDetector(cfg.Capabilities.OCREndpoint, cfg.Capabilities.OCRMinConfidence)
		if err := detector.EnsureLoaded(ctx); err != nil {
			fmt.Printf("✗ OCR (%s): %v\n", cfg.Capabilities.OCREndpoint, err)
			failed = true
		} else {
			fmt.Printf("✓ OCR: %s\n", cfg.Capabilities.OCREndpoint)
		}
	} else {
		fmt.Println("- OCR: disabled")
	}

	if cfg.Capabilities.WhisperEndpoint != "" {
		client := transcribe.NewWhisperClient(cfg.Capabilities.WhisperEndpoint, cfg.Capabilities.WhisperModel)
		if err := client.EnsureLoaded(ctx); err != nil {
			fmt.Printf("✗ transcription (%s): %v\n", cfg.Capabilities.WhisperEndpoint, err)
			failed = true
		} else {
			fmt.Printf("✓ transcription: %s\n", cfg.Capabilities.WhisperEndpoint)
		}
	} else {
		fmt.Println("- transcription: disabled")
	}

	if failed {
		os.Exit(1)
	}
}
