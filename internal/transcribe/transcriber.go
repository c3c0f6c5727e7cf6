package transcribe

import (
	"context"
)

// Segment is one timed span of recognized speech. Segments are ordered by
// start time but may carry small gaps or overlaps.
type Segment struct {
	Text        string  `json:"text"`
	StartTimeMS int64   `json:"start_time_ms"`
	EndTimeMS   int64   `json:"end_time_ms"`
	Confidence  float64 `json:"confidence"`
}

// Result is the full transcription of one audio file.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Options carry per-request hints to the model.
type Options struct {
	Language string
	Prompt   string
}

// Transcriber is the speech-to-text capability. Implementations may be
// unavailable at runtime; callers treat a failed invocation as the audio
// pipeline stage being absent.
type Transcriber interface {
	EnsureLoaded(ctx context.Context) error
	Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error)
}

// Disabled is the no-op transcriber variant.
type Disabled struct{}

func (Disabled) EnsureLoaded(ctx context.Context) error { return nil }

func (Disabled) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	return &Result{}, nil
}
