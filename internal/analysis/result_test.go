package analysis

import (
	"testing"

	"github.com/goccy/go-json"

	"github.com/adlens/adlens/internal/extract"
	"github.com/adlens/adlens/internal/scene"
)

func TestVideoResult_MapRoundTrip(t *testing.T) {
	result := &VideoAnalysisResult{
		Metadata: &extract.VideoMetadata{
			DurationSeconds: 15.36,
			FPS:             30,
			TotalFrames:     461,
			Width:           1080,
			Height:          1920,
			Codec:           "h264",
		},
		Scenes: &scene.Summary{SceneCount: 4, PacingScore: 70},
	}

	m, err := result.ToMap()
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}

	// Absent stages must be missing keys, not nulls.
	if _, present := m["objects"]; present {
		t.Error("Expected absent objects stage to be omitted from map")
	}
	if _, present := m["composition"]; present {
		t.Error("Expected absent composition stage to be omitted from map")
	}

	restored, err := VideoResultFromMap(m)
	if err != nil {
		t.Fatalf("VideoResultFromMap failed: %v", err)
	}
	if restored.Metadata == nil || restored.Metadata.TotalFrames != 461 {
		t.Errorf("Metadata did not round-trip: %+v", restored.Metadata)
	}
	if restored.Scenes == nil || restored.Scenes.SceneCount != 4 {
		t.Errorf("Scenes did not round-trip: %+v", restored.Scenes)
	}
	if restored.Objects != nil || restored.Text != nil || restored.Color != nil {
		t.Error("Expected absent stages to stay absent after round-trip")
	}
}

func TestAudioResult_MapRoundTrip(t *testing.T) {
	result := &AudioAnalysisResult{HookText: "Stop scrolling."}

	m, err := result.ToMap()
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}
	if _, present := m["transcription"]; present {
		t.Error("Expected absent transcription to be omitted")
	}

	restored, err := AudioResultFromMap(m)
	if err != nil {
		t.Fatalf("AudioResultFromMap failed: %v", err)
	}
	if restored.HookText != "Stop scrolling." {
		t.Errorf("Hook text did not round-trip: %q", restored.HookText)
	}
	if restored.Sentiment != nil || restored.Keywords != nil {
		t.Error("Expected absent stages to stay absent after round-trip")
	}
}

func TestRecord_SerializesErrorsAndOmitsEmpty(t *testing.T) {
	record := &Record{
		VideoID:    "abc",
		VideoError: "decode clip.mp4: no video stream",
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, present := m["video"]; present {
		t.Error("Expected absent video result to be omitted")
	}
	if _, present := m["audio_error"]; present {
		t.Error("Expected empty audio_error to be omitted")
	}
	if m["video_error"] != "decode clip.mp4: no video stream" {
		t.Errorf("Unexpected video_error: %v", m["video_error"])
	}
}
