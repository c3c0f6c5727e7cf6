package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/adlens/adlens/internal/extract"
	"github.com/adlens/adlens/internal/logging"
	"github.com/adlens/adlens/internal/text"
	"github.com/adlens/adlens/internal/transcribe"
)

// AudioConfig controls the audio pipeline.
type AudioConfig struct {
	Language          string
	Prompt            string
	HookWindowSeconds float64
}

const defaultHookWindowSeconds = 3.0

// AudioAnalyzer composes audio extraction, transcription and the text
// analyses into one AudioAnalysisResult. It shares no mutable state with a
// VideoAnalyzer working on the same file; the two may run concurrently.
type AudioAnalyzer struct {
	extractor   *extract.Extractor
	transcriber transcribe.Transcriber
	cfg         AudioConfig
	logger      zerolog.Logger
}

func NewAudioAnalyzer(extractor *extract.Extractor, transcriber transcribe.Transcriber, cfg AudioConfig) *AudioAnalyzer {
	if cfg.HookWindowSeconds <= 0 {
		cfg.HookWindowSeconds = defaultHookWindowSeconds
	}
	if transcriber == nil {
		transcriber = transcribe.Disabled{}
	}
	return &AudioAnalyzer{
		extractor:   extractor,
		transcriber: transcriber,
		cfg:         cfg,
		logger:      logging.WithComponent("audio-analyzer"),
	}
}

// Analyze runs the audio pipeline over one local video file. A missing audio
// stream or speechless audio yields an empty-but-valid result; an
// undecodable audio stream is fatal. The temporary WAV is removed on every
// exit path.
func (a *AudioAnalyzer) Analyze(ctx context.Context, videoPath string) (*AudioAnalysisResult, error) {
	result := &AudioAnalysisResult{}

	audioPath, err := a.extractor.ExtractAudio(ctx, videoPath)
	if err != nil {
		var audioErr *extract.AudioError
		if errors.As(err, &audioErr) && audioErr.Reason == "no audio stream" {
			a.logger.Info().Str("path", videoPath).Msg("no audio stream, returning empty audio result")
			return result, nil
		}
		return nil, fmt.Errorf("audio analysis requires a decodable track: %w", err)
	}
	defer os.Remove(audioPath)

	transcription, ok := runStage(a.logger, "transcription", func() (*transcribe.Result, error) {
		if err := a.transcriber.EnsureLoaded(ctx); err != nil {
			return nil, fmt.Errorf("transcriber unavailable: %w", err)
		}
		return a.transcriber.Transcribe(ctx, audioPath, transcribe.Options{
			Language: a.cfg.Language,
			Prompt:   a.cfg.Prompt,
		})
	})
	if !ok || transcription == nil || transcription.Text == "" {
		// No speech recognized: the remaining stages have nothing to
		// work with, but that is a sparse result, not a failure.
		a.logger.Info().Str("path", videoPath).Msg("no transcript text, returning empty audio result")
		return result, nil
	}
	result.Transcription = transcription

	if sentiment, ok := runStage(a.logger, "sentiment", func() (*text.SentimentResult, error) {
		return text.AnalyzeSentiment(transcription.Segments), nil
	}); ok && sentiment != nil {
		result.Sentiment = sentiment
	}

	if keywords, ok := runStage(a.logger, "keywords", func() (*text.KeywordResult, error) {
		return text.ExtractKeywords(transcription.Text), nil
	}); ok && keywords != nil {
		result.Keywords = keywords
	}

	result.HookText = text.HookText(transcription.Segments, a.cfg.HookWindowSeconds)

	return result, nil
}
