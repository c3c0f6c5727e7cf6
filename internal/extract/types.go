package extract

import (
	"fmt"
	"image"
)

// Frame is a single decoded still image. FrameNumber is the monotonic decode
// index in the source stream; TimestampSeconds is FrameNumber / source fps.
// A Frame is read-only once produced.
type Frame struct {
	Image            image.Image
	FrameNumber      int
	TimestampSeconds float64
	IsKeyframe       bool
}

// VideoMetadata is computed once per video and never mutated.
type VideoMetadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	FPS             float64 `json:"fps"`
	TotalFrames     int     `json:"total_frames"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Codec           string  `json:"codec"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
	HasAudio        bool    `json:"has_audio"`
}

// DecodeError marks a video that cannot produce any frames: unreadable
// container, no video stream, zero frames or invalid fps. Fatal to the job.
type DecodeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Path, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// AudioError marks a failed audio demux: no audio stream, or ffmpeg exited
// non-zero. Fatal to the audio result only.
type AudioError struct {
	Path   string
	Reason string
	Err    error
}

func (e *AudioError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract audio %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract audio %s: %s", e.Path, e.Reason)
}

func (e *AudioError) Unwrap() error { return e.Err }

// FrameInterval is the decode-index stride used when sampling at targetFPS
// from a stream at sourceFPS. Never below 1: a target above the source rate
// keeps every frame.
func FrameInterval(sourceFPS, targetFPS float64) int {
	if targetFPS <= 0 || sourceFPS <= 0 {
		return 1
	}
	interval := int(sourceFPS/targetFPS + 0.5)
	if interval < 1 {
		interval = 1
	}
	return interval
}
