package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/adlens/adlens/internal/extract"
	"github.com/adlens/adlens/internal/logging"
	"github.com/adlens/adlens/internal/metrics"
	"github.com/adlens/adlens/internal/scene"
	"github.com/adlens/adlens/internal/vision"
)

// VideoConfig controls the visual pipeline. Zero values use the defaults
// applied in NewVideoAnalyzer.
type VideoConfig struct {
	TargetFPS         float64
	SceneFPS          float64
	MaxDimension      int
	MaxFrames         int
	KeyframeThreshold float64
	Concurrency       int
	ColorClusters     int
	Scene             scene.Config

	EnableObjects     bool
	EnableOCR         bool
	EnableComposition bool
	EnableColor       bool
}

const (
	defaultSceneFPS          = 6.0
	defaultKeyframeThreshold = 30.0
	defaultConcurrency       = 4
	maxTextSamples           = 50
)

// VideoAnalyzer composes frame extraction, scene detection and the
// per-frame analyzers into one VideoAnalysisResult. Capabilities are
// injected at construction; the analyzer holds no state between runs and is
// safe to re-invoke from scratch.
type VideoAnalyzer struct {
	extractor *extract.Extractor
	objects   vision.ObjectDetector
	texts     vision.TextDetector
	color     *vision.ColorAnalyzer
	cfg       VideoConfig
	logger    zerolog.Logger
}

func NewVideoAnalyzer(extractor *extract.Extractor, objects vision.ObjectDetector, texts vision.TextDetector, cfg VideoConfig) *VideoAnalyzer {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = extract.DefaultTargetFPS
	}
	if cfg.SceneFPS <= 0 {
		cfg.SceneFPS = defaultSceneFPS
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = extract.DefaultMaxDimension
	}
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = extract.DefaultMaxFrames
	}
	if cfg.KeyframeThreshold <= 0 {
		cfg.KeyframeThreshold = defaultKeyframeThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if objects == nil {
		objects = vision.DisabledObjectDetector{}
	}
	if texts == nil {
		texts = vision.DisabledTextDetector{}
	}
	return &VideoAnalyzer{
		extractor: extractor,
		objects:   objects,
		texts:     texts,
		color:     vision.NewColorAnalyzer(cfg.ColorClusters),
		cfg:       cfg,
		logger:    logging.WithComponent("video-analyzer"),
	}
}

// Analyze runs the visual pipeline over one local video file. Metadata
// failure is fatal; every later stage degrades to an absent field.
func (a *VideoAnalyzer) Analyze(ctx context.Context, videoPath string) (*VideoAnalysisResult, error) {
	meta, err := a.extractor.Metadata(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("video analysis requires metadata: %w", err)
	}

	result := &VideoAnalysisResult{Metadata: meta}

	frames, _ := runStage(a.logger, "extract_frames", func() ([]*extract.Frame, error) {
		seq, err := a.extractor.Frames(ctx, videoPath, meta, extract.FrameOptions{
			TargetFPS:    a.cfg.TargetFPS,
			MaxDimension: a.cfg.MaxDimension,
		})
		if err != nil {
			return nil, err
		}
		defer seq.Close()
		return seq.Collect(a.cfg.MaxFrames)
	})

	if keyframes, ok := runStage(a.logger, "extract_keyframes", func() (*KeyframeSummary, error) {
		seq, err := a.extractor.Keyframes(ctx, videoPath, meta, a.cfg.KeyframeThreshold, a.cfg.MaxDimension)
		if err != nil {
			return nil, err
		}
		defer seq.Close()
		collected, err := seq.Collect(a.cfg.MaxFrames)
		if err != nil {
			return nil, err
		}
		summary := &KeyframeSummary{Count: len(collected)}
		for _, frame := range collected {
			summary.Timestamps = append(summary.Timestamps, frame.TimestampSeconds)
		}
		return summary, nil
	}); ok {
		result.Keyframes = keyframes
	}

	if scenes, ok := runStage(a.logger, "scene_detection", func() (*scene.Summary, error) {
		seq, err := a.extractor.Frames(ctx, videoPath, meta, extract.FrameOptions{
			TargetFPS:    a.cfg.SceneFPS,
			MaxDimension: a.cfg.MaxDimension,
		})
		if err != nil {
			return nil, err
		}
		defer seq.Close()
		detected, err := scene.NewDetector(a.cfg.Scene).Detect(seq, meta)
		if err != nil {
			return nil, err
		}
		return scene.Summarize(detected), nil
	}); ok {
		result.Scenes = scenes
	}

	if len(frames) == 0 {
		a.logger.Warn().Msg("no sampled frames, skipping per-frame analyzers")
		return result, nil
	}
	metrics.FramesAnalyzed.Add(float64(len(frames)))

	if a.cfg.EnableComposition {
		if summary, ok := runStage(a.logger, "composition", func() (*vision.CompositionSummary, error) {
			return a.analyzeComposition(ctx, frames)
		}); ok {
			result.Composition = summary
		}
	}

	if a.cfg.EnableColor {
		if summary, ok := runStage(a.logger, "color", func() (*vision.ColorSummary, error) {
			return a.analyzeColor(ctx, frames)
		}); ok {
			result.Color = summary
		}
	}

	if a.cfg.EnableObjects {
		if summary, ok := runStage(a.logger, "object_detection", func() (*ObjectSummary, error) {
			return a.detectObjects(ctx, frames)
		}); ok {
			result.Objects = summary
		}
	}

	if a.cfg.EnableOCR {
		if summary, ok := runStage(a.logger, "text_detection", func() (*TextSummary, error) {
			return a.detectText(ctx, frames)
		}); ok {
			result.Text = summary
		}
	}

	return result, nil
}

// analyzeComposition fans out over frames with bounded concurrency; frames
// carry no inter-frame dependency.
func (a *VideoAnalyzer) analyzeComposition(ctx context.Context, frames []*extract.Frame) (*vision.CompositionSummary, error) {
	results := make([]vision.CompositionResult, len(frames))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, frame := range frames {
		g.Go(func() error {
			results[i] = vision.AnalyzeComposition(frame.Image, frame.FrameNumber)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vision.SummarizeComposition(results), nil
}

func (a *VideoAnalyzer) analyzeColor(ctx context.Context, frames []*extract.Frame) (*vision.ColorSummary, error) {
	results := make([]vision.FrameColorResult, len(frames))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, frame := range frames {
		g.Go(func() error {
			results[i] = a.color.AnalyzeFrame(frame.Image, frame.FrameNumber)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vision.SummarizeColors(results), nil
}

// detectObjects runs the capability per frame. Individual frame failures
// degrade the sample; only a batch with zero successes fails the stage.
func (a *VideoAnalyzer) detectObjects(ctx context.Context, frames []*extract.Frame) (*ObjectSummary, error) {
	if err := a.objects.EnsureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("object detector unavailable: %w", err)
	}

	var mu sync.Mutex
	perFrame := make(map[int][]vision.Detection)
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for _, frame := range frames {
		g.Go(func() error {
			detections, err := a.objects.Detect(gctx, frame.Image)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				a.logger.Debug().Err(err).Int("frame", frame.FrameNumber).Msg("object detection failed for frame")
				return nil
			}
			perFrame[frame.FrameNumber] = detections
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(perFrame) == 0 && failed > 0 {
		return nil, fmt.Errorf("object detection failed for all %d frames", failed)
	}

	summary := &ObjectSummary{
		FramesAnalyzed: len(perFrame),
		LabelCounts:    make(map[string]int),
	}
	personFrames, productFrames := 0, 0
	confidenceSum := 0.0
	for _, detections := range perFrame {
		hasPerson, hasProduct := false, false
		for _, det := range detections {
			summary.TotalDetections++
			summary.LabelCounts[det.Label]++
			confidenceSum += det.Confidence
			if det.Label == "person" || det.Label == "face" {
				hasPerson = true
			} else {
				hasProduct = true
			}
		}
		if hasPerson {
			personFrames++
		}
		if hasProduct {
			productFrames++
		}
	}
	if summary.FramesAnalyzed > 0 {
		summary.PersonPresenceRatio = float64(personFrames) / float64(summary.FramesAnalyzed)
		summary.ProductPresenceRatio = float64(productFrames) / float64(summary.FramesAnalyzed)
	}
	if summary.TotalDetections > 0 {
		summary.AvgConfidence = confidenceSum / float64(summary.TotalDetections)
	}
	return summary, nil
}

func (a *VideoAnalyzer) detectText(ctx context.Context, frames []*extract.Frame) (*TextSummary, error) {
	if err := a.texts.EnsureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("text detector unavailable: %w", err)
	}

	var mu sync.Mutex
	var regions []vision.TextRegion
	analyzed, failed := 0, 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for _, frame := range frames {
		g.Go(func() error {
			found, err := a.texts.Detect(gctx, frame.Image)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				a.logger.Debug().Err(err).Int("frame", frame.FrameNumber).Msg("text detection failed for frame")
				return nil
			}
			analyzed++
			regions = append(regions, found...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if analyzed == 0 && failed > 0 {
		return nil, fmt.Errorf("text detection failed for all %d frames", failed)
	}

	summary := &TextSummary{
		FramesAnalyzed:  analyzed,
		RegionsDetected: len(regions),
		KindCounts:      make(map[string]int),
	}
	seen := make(map[string]bool)
	for _, region := range regions {
		summary.KindCounts[region.Kind]++
		normalized := strings.TrimSpace(region.Text)
		if normalized == "" || seen[strings.ToLower(normalized)] {
			continue
		}
		seen[strings.ToLower(normalized)] = true
		if len(summary.Texts) < maxTextSamples {
			summary.Texts = append(summary.Texts, normalized)
		}
		if region.Kind == vision.RegionCTACandidate {
			summary.CTACandidates = append(summary.CTACandidates, normalized)
		}
	}
	sort.Strings(summary.Texts)
	sort.Strings(summary.CTACandidates)
	return summary, nil
}
