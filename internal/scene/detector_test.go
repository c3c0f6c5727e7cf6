package scene

import (
	"image/color"
	"io"
	"testing"

	"github.com/adlens/adlens/internal/extract"
)

type sliceSource struct {
	frames []*extract.Frame
	pos    int
}

func (s *sliceSource) Next() (*extract.Frame, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

// colorRun appends n consecutive frames of one solid color starting at the
// current frame index.
func colorRun(frames []*extract.Frame, c color.RGBA, n int, fps float64) []*extract.Frame {
	start := len(frames)
	for i := 0; i < n; i++ {
		num := start + i
		frames = append(frames, &extract.Frame{
			Image:            solidImage(c, 16, 16),
			FrameNumber:      num,
			TimestampSeconds: float64(num) / fps,
		})
	}
	return frames
}

func TestDetector_Detect_CutsAtColorChanges(t *testing.T) {
	const fps = 10.0

	var frames []*extract.Frame
	frames = colorRun(frames, color.RGBA{255, 0, 0, 255}, 30, fps)
	frames = colorRun(frames, color.RGBA{0, 255, 0, 255}, 30, fps)
	frames = colorRun(frames, color.RGBA{0, 0, 255, 255}, 40, fps)

	meta := &extract.VideoMetadata{FPS: fps, TotalFrames: 100, DurationSeconds: 10}
	detector := NewDetector(Config{Threshold: 0.3, MinSceneFrames: 5})

	scenes, err := detector.Detect(&sliceSource{frames: frames}, meta)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if len(scenes) != 3 {
		t.Fatalf("Expected 3 scenes, got %d", len(scenes))
	}

	wantBounds := [][2]int{{0, 29}, {30, 59}, {60, 99}}
	for i, want := range wantBounds {
		if scenes[i].StartFrame != want[0] || scenes[i].EndFrame != want[1] {
			t.Errorf("Scene %d: expected frames [%d,%d], got [%d,%d]",
				i, want[0], want[1], scenes[i].StartFrame, scenes[i].EndFrame)
		}
		if scenes[i].SceneNumber != i {
			t.Errorf("Scene %d: expected scene_number %d, got %d", i, i, scenes[i].SceneNumber)
		}
	}

	// Hard color changes are large distances, so boundaries classify as
	// cuts (the opening scene is a cut by convention).
	for i, s := range scenes {
		if s.TransitionType != TransitionCut {
			t.Errorf("Scene %d: expected cut, got %s", i, s.TransitionType)
		}
	}
}

func TestDetector_Detect_PartitionIsGapFree(t *testing.T) {
	const fps = 10.0

	var frames []*extract.Frame
	frames = colorRun(frames, color.RGBA{255, 0, 0, 255}, 50, fps)
	frames = colorRun(frames, color.RGBA{0, 0, 255, 255}, 50, fps)

	meta := &extract.VideoMetadata{FPS: fps, TotalFrames: 100, DurationSeconds: 10}
	detector := NewDetector(Config{Threshold: 0.3, MinSceneFrames: 5})

	scenes, err := detector.Detect(&sliceSource{frames: frames}, meta)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(scenes) == 0 {
		t.Fatal("Expected scenes, got none")
	}

	if scenes[0].StartFrame != 0 {
		t.Errorf("Partition must start at frame 0, got %d", scenes[0].StartFrame)
	}
	for i := 1; i < len(scenes); i++ {
		if scenes[i].StartFrame != scenes[i-1].EndFrame+1 {
			t.Errorf("Gap between scene %d and %d: end %d, next start %d",
				i-1, i, scenes[i-1].EndFrame, scenes[i].StartFrame)
		}
	}
	last := scenes[len(scenes)-1]
	if last.EndFrame != meta.TotalFrames-1 {
		t.Errorf("Partition must end at frame %d, got %d", meta.TotalFrames-1, last.EndFrame)
	}

	totalDuration := 0.0
	for _, s := range scenes {
		totalDuration += s.DurationSeconds
	}
	if diff := totalDuration - meta.DurationSeconds; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Scene durations sum to %f, expected %f", totalDuration, meta.DurationSeconds)
	}
}

func TestDetector_Detect_MinSceneFramesSuppressesEarlyBoundary(t *testing.T) {
	const fps = 10.0

	// Color flips after only 3 frames; with MinSceneFrames 15 the boundary
	// is suppressed and everything stays one scene.
	var frames []*extract.Frame
	frames = colorRun(frames, color.RGBA{255, 0, 0, 255}, 3, fps)
	frames = colorRun(frames, color.RGBA{0, 255, 0, 255}, 7, fps)

	meta := &extract.VideoMetadata{FPS: fps, TotalFrames: 10, DurationSeconds: 1}
	detector := NewDetector(Config{Threshold: 0.3, MinSceneFrames: 15})

	scenes, err := detector.Detect(&sliceSource{frames: frames}, meta)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("Expected 1 scene, got %d", len(scenes))
	}
	if scenes[0].StartFrame != 0 || scenes[0].EndFrame != 9 {
		t.Errorf("Expected scene [0,9], got [%d,%d]", scenes[0].StartFrame, scenes[0].EndFrame)
	}
}

func TestDetector_Detect_EmptyStream(t *testing.T) {
	meta := &extract.VideoMetadata{FPS: 10, TotalFrames: 0}
	detector := NewDetector(Config{})

	scenes, err := detector.Detect(&sliceSource{}, meta)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if scenes != nil {
		t.Errorf("Expected nil scenes for empty stream, got %d", len(scenes))
	}
}

func TestDetector_AdaptiveFallsBackOnShortStreams(t *testing.T) {
	const fps = 10.0

	// Fewer distances than the adaptive window: the static threshold must
	// still apply and the hard cut must be found.
	var frames []*extract.Frame
	frames = colorRun(frames, color.RGBA{255, 0, 0, 255}, 10, fps)
	frames = colorRun(frames, color.RGBA{0, 0, 255, 255}, 10, fps)

	meta := &extract.VideoMetadata{FPS: fps, TotalFrames: 20, DurationSeconds: 2}
	detector := NewDetector(Config{Threshold: 0.3, MinSceneFrames: 5, AdaptiveThreshold: true})

	scenes, err := detector.Detect(&sliceSource{frames: frames}, meta)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("Expected 2 scenes, got %d", len(scenes))
	}
}

func TestClassifyTransition(t *testing.T) {
	tests := []struct {
		dist float64
		want string
	}{
		{0.95, TransitionCut},
		{0.81, TransitionCut},
		{0.6, TransitionDissolve},
		{0.41, TransitionDissolve},
		{0.35, TransitionFade},
	}

	for _, tt := range tests {
		if got := classifyTransition(tt.dist); got != tt.want {
			t.Errorf("classifyTransition(%f): expected %s, got %s", tt.dist, tt.want, got)
		}
	}
}
