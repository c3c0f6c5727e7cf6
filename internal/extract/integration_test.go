package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// These tests decode real clips and are skipped when ffmpeg/ffprobe are not
// installed. Inputs are synthesized with lavfi sources so no fixtures are
// checked in.

func newLiveExtractor(t *testing.T) *Extractor {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not in PATH")
	}
	ex, err := NewExtractor(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create extractor: %v", err)
	}
	return ex
}

func runSynth(t *testing.T, args []string) {
	t.Helper()
	cmd := exec.Command("ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to synthesize clip: %v\n%s", err, out)
	}
}

// synthPattern writes a two second 160x120 test pattern at 30 fps, with an
// optional sine audio track.
func synthPattern(t *testing.T, dir string, withAudio bool) string {
	t.Helper()
	out := filepath.Join(dir, "pattern.mp4")
	args := []string{"-y", "-f", "lavfi", "-i", "testsrc=duration=2:size=160x120:rate=30"}
	if withAudio {
		args = append(args, "-f", "lavfi", "-i", "sine=frequency=440:duration=2", "-c:a", "aac", "-shortest")
	}
	args = append(args, "-c:v", "mpeg4", "-q:v", "2", out)
	runSynth(t, args)
	return out
}

// synthCuts writes three solid-color segments (red, green, blue) joined by
// hard cuts, each segSeconds long at 30 fps.
func synthCuts(t *testing.T, dir string, segSeconds int) string {
	t.Helper()
	out := filepath.Join(dir, "cuts.mp4")
	src := func(c string) string {
		return fmt.Sprintf("color=c=%s:duration=%d:size=160x120:rate=30", c, segSeconds)
	}
	runSynth(t, []string{
		"-y",
		"-f", "lavfi", "-i", src("red"),
		"-f", "lavfi", "-i", src("green"),
		"-f", "lavfi", "-i", src("blue"),
		"-filter_complex", "[0:v][1:v][2:v]concat=n=3:v=1:a=0[v]",
		"-map", "[v]",
		"-c:v", "mpeg4", "-q:v", "2",
		out,
	})
	return out
}

func TestMetadata_SynthesizedClip(t *testing.T) {
	ex := newLiveExtractor(t)
	path := synthPattern(t, t.TempDir(), true)

	meta, err := ex.Metadata(context.Background(), path)
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if math.Abs(meta.FPS-30) > 0.01 {
		t.Errorf("FPS = %f, want 30", meta.FPS)
	}
	if meta.Width != 160 || meta.Height != 120 {
		t.Errorf("Dimensions = %dx%d, want 160x120", meta.Width, meta.Height)
	}
	if meta.TotalFrames < 58 || meta.TotalFrames > 62 {
		t.Errorf("TotalFrames = %d, want about 60", meta.TotalFrames)
	}
	if meta.DurationSeconds < 1.8 || meta.DurationSeconds > 2.3 {
		t.Errorf("DurationSeconds = %f, want about 2", meta.DurationSeconds)
	}
	if !meta.HasAudio {
		t.Error("Expected HasAudio for a clip with a sine track")
	}
	if meta.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes = %d, want > 0", meta.FileSizeBytes)
	}
}

func TestMetadata_NoVideoStream(t *testing.T) {
	ex := newLiveExtractor(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	runSynth(t, []string{"-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=1", path})

	_, err := ex.Metadata(context.Background(), path)
	if err == nil {
		t.Fatal("Expected error for audio-only input, got nil")
	}
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Expected *DecodeError, got %T: %v", err, err)
	}
	if decErr.Reason != "no video stream" {
		t.Errorf("Reason = %q, want %q", decErr.Reason, "no video stream")
	}
}

func TestMetadata_GarbageContainer(t *testing.T) {
	ex := newLiveExtractor(t)
	path := filepath.Join(t.TempDir(), "garbage.mp4")
	if err := os.WriteFile(path, []byte("not a video at all"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := ex.Metadata(context.Background(), path)
	if err == nil {
		t.Fatal("Expected error for non-media input, got nil")
	}
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Expected *DecodeError, got %T: %v", err, err)
	}
}

func TestFrames_SampledSequence(t *testing.T) {
	ex := newLiveExtractor(t)
	ctx := context.Background()
	path := synthPattern(t, t.TempDir(), false)

	meta, err := ex.Metadata(ctx, path)
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}

	seq, err := ex.Frames(ctx, path, meta, FrameOptions{TargetFPS: 6})
	if err != nil {
		t.Fatalf("Frames failed: %v", err)
	}
	frames, err := seq.Collect(0)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	// 60 source frames sampled at stride 5 keep decode indices 0, 5, 10, ...
	if len(frames) < 10 || len(frames) > 13 {
		t.Fatalf("Collected %d frames, want about 12", len(frames))
	}
	for i, frame := range frames {
		wantNumber := i * 5
		if frame.FrameNumber != wantNumber {
			t.Errorf("frames[%d].FrameNumber = %d, want %d", i, frame.FrameNumber, wantNumber)
		}
		wantTS := float64(wantNumber) / meta.FPS
		if math.Abs(frame.TimestampSeconds-wantTS) > 1e-6 {
			t.Errorf("frames[%d].TimestampSeconds = %f, want %f", i, frame.TimestampSeconds, wantTS)
		}
		if frame.IsKeyframe {
			t.Errorf("frames[%d] flagged as keyframe in sampled mode", i)
		}
		if b := frame.Image.Bounds(); b.Dx() > 160 || b.Dy() > 120 {
			t.Errorf("frames[%d] bounds %v exceed source dimensions", i, b)
		}
	}
}

func TestKeyframes_FirstFrameAndCuts(t *testing.T) {
	ex := newLiveExtractor(t)
	ctx := context.Background()
	path := synthCuts(t, t.TempDir(), 2)

	meta, err := ex.Metadata(ctx, path)
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}

	seq, err := ex.Keyframes(ctx, path, meta, 30, 0)
	if err != nil {
		t.Fatalf("Keyframes failed: %v", err)
	}
	frames, err := seq.Collect(0)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	// First decoded frame plus one keyframe per color change.
	if len(frames) != 3 {
		t.Fatalf("Collected %d keyframes, want 3", len(frames))
	}
	wantNumbers := []int{0, 60, 120}
	for i, frame := range frames {
		if !frame.IsKeyframe {
			t.Errorf("frames[%d].IsKeyframe = false", i)
		}
		if frame.FrameNumber != wantNumbers[i] {
			t.Errorf("frames[%d].FrameNumber = %d, want %d", i, frame.FrameNumber, wantNumbers[i])
		}
		wantTS := float64(wantNumbers[i]) / meta.FPS
		if math.Abs(frame.TimestampSeconds-wantTS) > 1e-6 {
			t.Errorf("frames[%d].TimestampSeconds = %f, want %f", i, frame.TimestampSeconds, wantTS)
		}
	}
}

func TestExtractAudio_SynthesizedClip(t *testing.T) {
	ex := newLiveExtractor(t)
	path := synthPattern(t, t.TempDir(), true)

	wavPath, err := ex.ExtractAudio(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractAudio failed: %v", err)
	}
	defer os.Remove(wavPath)

	if !strings.HasSuffix(wavPath, ".wav") {
		t.Errorf("Output path %q does not end in .wav", wavPath)
	}
	info, err := os.Stat(wavPath)
	if err != nil {
		t.Fatalf("Failed to stat output: %v", err)
	}
	if info.Size() <= 44 {
		t.Errorf("Output size = %d, want more than a bare WAV header", info.Size())
	}
}

func TestExtractAudio_NoAudioStream(t *testing.T) {
	ex := newLiveExtractor(t)
	path := synthPattern(t, t.TempDir(), false)

	_, err := ex.ExtractAudio(context.Background(), path)
	if err == nil {
		t.Fatal("Expected error for a video-only clip, got nil")
	}
	var audioErr *AudioError
	if !errors.As(err, &audioErr) {
		t.Fatalf("Expected *AudioError, got %T: %v", err, err)
	}
	if audioErr.Reason != "no audio stream" {
		t.Errorf("Reason = %q, want %q", audioErr.Reason, "no audio stream")
	}
}
