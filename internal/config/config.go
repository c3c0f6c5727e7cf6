package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is loaded in layers: built-in defaults, then an optional YAML file,
// then ADLENS_* environment variables. Immutable after Load.
type Config struct {
	Server       ServerConfig     `koanf:"server"`
	Database     DatabaseConfig   `koanf:"database"`
	Storage      StorageConfig    `koanf:"storage"`
	Pipeline     PipelineConfig   `koanf:"pipeline"`
	Capabilities CapabilityConfig `koanf:"capabilities"`
	Logging      LoggingConfig    `koanf:"logging"`
}

type ServerConfig struct {
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type StorageConfig struct {
	UploadDir string `koanf:"upload_dir"`
	TempDir   string `koanf:"temp_dir"`
}

type PipelineConfig struct {
	TargetFPS         float64 `koanf:"target_fps"`
	SceneFPS          float64 `koanf:"scene_fps"`
	MaxDimension      int     `koanf:"max_dimension"`
	MaxFrames         int     `koanf:"max_frames"`
	KeyframeThreshold float64 `koanf:"keyframe_threshold"`
	SceneThreshold    float64 `koanf:"scene_threshold"`
	MinSceneFrames    int     `koanf:"min_scene_frames"`
	AdaptiveThreshold bool    `koanf:"adaptive_threshold"`
	Concurrency       int     `koanf:"concurrency"`
	ColorClusters     int     `koanf:"color_clusters"`
	Workers           int     `koanf:"workers"`
	Language          string  `koanf:"language"`

	EnableObjects     bool `koanf:"enable_objects"`
	EnableOCR         bool `koanf:"enable_ocr"`
	EnableComposition bool `koanf:"enable_composition"`
	EnableColor       bool `koanf:"enable_color"`
}

type CapabilityConfig struct {
	ObjectEndpoint      string  `koanf:"object_endpoint"`
	ObjectMinConfidence float64 `koanf:"object_min_confidence"`
	OCREndpoint         string  `koanf:"ocr_endpoint"`
	OCRMinConfidence    float64 `koanf:"ocr_min_confidence"`
	WhisperEndpoint     string  `koanf:"whisper_endpoint"`
	WhisperModel        string  `koanf:"whisper_model"`
}

type LoggingConfig struct {
	Level   string `koanf:"level"`
	Console bool   `koanf:"console"`
}

const envPrefix = "ADLENS_"

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			MaxUploadBytes: 200 << 20,
		},
		Database: DatabaseConfig{
			Path: "./adlens.db",
		},
		Storage: StorageConfig{
			UploadDir: "./uploads",
			TempDir:   "",
		},
		Pipeline: PipelineConfig{
			TargetFPS:         2.0,
			SceneFPS:          6.0,
			MaxDimension:      640,
			MaxFrames:         600,
			KeyframeThreshold: 30.0,
			SceneThreshold:    0.3,
			MinSceneFrames:    15,
			AdaptiveThreshold: true,
			Concurrency:       4,
			ColorClusters:     5,
			Workers:           2,
			EnableComposition: true,
			EnableColor:       true,
		},
		Capabilities: CapabilityConfig{
			ObjectMinConfidence: 0.5,
			OCRMinConfidence:    0.3,
			WhisperModel:        "whisper-1",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: false,
		},
	}
}

// Load builds the layered configuration. configPath may be empty; a missing
// file at the default location is not an error.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat(configPath); err != nil {
			configPath = ""
		}
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// ADLENS_SERVER_PORT -> server.port; the first underscore separates
	// the section, the rest stays snake_case.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		parts := strings.SplitN(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", 2)
		return strings.Join(parts, ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Pipeline.TargetFPS <= 0 {
		return fmt.Errorf("pipeline target_fps must be positive")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline workers must be positive")
	}
	if c.Pipeline.EnableObjects && c.Capabilities.ObjectEndpoint == "" {
		return fmt.Errorf("object detection enabled but no object_endpoint configured")
	}
	if c.Pipeline.EnableOCR && c.Capabilities.OCREndpoint == "" {
		return fmt.Errorf("OCR enabled but no ocr_endpoint configured")
	}
	return nil
}
