package scene

import (
	"io"
	"math"

	"github.com/rs/zerolog"

	"github.com/adlens/adlens/internal/extract"
	"github.com/adlens/adlens/internal/logging"
)

// Transition classification of a shot boundary.
const (
	TransitionCut      = "cut"
	TransitionDissolve = "dissolve"
	TransitionFade     = "fade"
)

// Scene is one shot of the video. Scenes form a 0-based, contiguous,
// gap-free partition of [0, totalFrames): scene N's EndFrame+1 equals scene
// N+1's StartFrame.
type Scene struct {
	SceneNumber      int     `json:"scene_number"`
	StartFrame       int     `json:"start_frame"`
	EndFrame         int     `json:"end_frame"`
	StartTimeSeconds float64 `json:"start_time_seconds"`
	EndTimeSeconds   float64 `json:"end_time_seconds"`
	DurationSeconds  float64 `json:"duration_seconds"`
	TransitionType   string  `json:"transition_type"`
}

// FrameSource is the consumed side of a frame stream; Next returns io.EOF at
// end of stream.
type FrameSource interface {
	Next() (*extract.Frame, error)
}

// Config controls boundary detection. Zero values use the defaults below.
type Config struct {
	Threshold         float64
	MinSceneFrames    int
	AdaptiveThreshold bool
}

const (
	DefaultThreshold      = 0.3
	DefaultMinSceneFrames = 15

	// The adaptive threshold looks at a rolling window of recent
	// frame-pair distances; with fewer recorded distances than this the
	// static threshold applies.
	adaptiveWindow = 30
)

// Detector finds shot boundaries from consecutive-frame histogram distances.
// Detection is strictly sequential: each step depends on the previous
// frame's histogram.
type Detector struct {
	cfg    Config
	logger zerolog.Logger
}

func NewDetector(cfg Config) *Detector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.MinSceneFrames <= 0 {
		cfg.MinSceneFrames = DefaultMinSceneFrames
	}
	return &Detector{
		cfg:    cfg,
		logger: logging.WithComponent("scene"),
	}
}

// Detect consumes the frame stream and returns the full scene partition. The
// final partial scene is always emitted, even when shorter than
// MinSceneFrames.
func (d *Detector) Detect(src FrameSource, meta *extract.VideoMetadata) ([]Scene, error) {
	var (
		scenes     []Scene
		prevHist   []float64
		diffs      []float64
		sceneStart = 0
		transition = TransitionCut
		sawFrame   = false
	)

	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		sawFrame = true

		hist := HueSatHistogram(frame.Image)
		if prevHist == nil {
			prevHist = hist
			continue
		}

		dist := Bhattacharyya(prevHist, hist)
		prevHist = hist

		threshold := d.effectiveThreshold(diffs)
		diffs = append(diffs, dist)
		if len(diffs) > adaptiveWindow {
			diffs = diffs[len(diffs)-adaptiveWindow:]
		}

		if dist > threshold && frame.FrameNumber-sceneStart >= d.cfg.MinSceneFrames {
			scenes = append(scenes, d.makeScene(len(scenes), sceneStart, frame.FrameNumber-1, meta.FPS, transition))
			sceneStart = frame.FrameNumber
			transition = classifyTransition(dist)
		}
	}

	if !sawFrame {
		return nil, nil
	}

	endFrame := meta.TotalFrames - 1
	if endFrame < sceneStart {
		endFrame = sceneStart
	}
	scenes = append(scenes, d.makeScene(len(scenes), sceneStart, endFrame, meta.FPS, transition))

	d.logger.Debug().Int("scenes", len(scenes)).Msg("scene detection complete")
	return scenes, nil
}

// effectiveThreshold raises the static threshold on globally noisy footage:
// max(static, mean + 2*stddev) over the rolling window. A short window falls
// back to the static threshold.
func (d *Detector) effectiveThreshold(diffs []float64) float64 {
	if !d.cfg.AdaptiveThreshold || len(diffs) < adaptiveWindow {
		return d.cfg.Threshold
	}

	mean := 0.0
	for _, v := range diffs {
		mean += v
	}
	mean /= float64(len(diffs))

	variance := 0.0
	for _, v := range diffs {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(len(diffs)))

	adaptive := mean + 2*stddev
	if adaptive > d.cfg.Threshold {
		return adaptive
	}
	return d.cfg.Threshold
}

func (d *Detector) makeScene(number, startFrame, endFrame int, fps float64, transition string) Scene {
	start := float64(startFrame) / fps
	end := float64(endFrame+1) / fps
	return Scene{
		SceneNumber:      number,
		StartFrame:       startFrame,
		EndFrame:         endFrame,
		StartTimeSeconds: start,
		EndTimeSeconds:   end,
		DurationSeconds:  end - start,
		TransitionType:   transition,
	}
}

// classifyTransition is a magnitude heuristic on the triggering distance.
func classifyTransition(dist float64) string {
	switch {
	case dist > 0.8:
		return TransitionCut
	case dist > 0.4:
		return TransitionDissolve
	default:
		return TransitionFade
	}
}
