package vision

import (
	"context"
	"image"
)

// BoundingBox is normalized to [0,1] x [0,1] of frame width/height.
// Producers clip out-of-range boxes rather than rejecting them.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clip forces the box inside the unit square so that X+Width <= 1 and
// Y+Height <= 1.
func (b BoundingBox) Clip() BoundingBox {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	b.X = clamp(b.X)
	b.Y = clamp(b.Y)
	b.Width = clamp(b.Width)
	b.Height = clamp(b.Height)
	if b.X+b.Width > 1 {
		b.Width = 1 - b.X
	}
	if b.Y+b.Height > 1 {
		b.Height = 1 - b.Y
	}
	return b
}

// Detection is one object found in a frame by the detection capability.
type Detection struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// Text region kinds produced by ClassifyRegion.
const (
	RegionSubtitle     = "subtitle"
	RegionTitle        = "title"
	RegionCTACandidate = "cta_candidate"
	RegionOverlay      = "overlay"
)

// TextRegion is one block of on-screen text found by the OCR capability.
type TextRegion struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
	Kind       string      `json:"kind"`
}

// ObjectDetector is the black-box per-frame bounding-box classifier.
// Implementations must not share mutable state across frames; batch callers
// rely on Detect being safe to run concurrently.
type ObjectDetector interface {
	EnsureLoaded(ctx context.Context) error
	Detect(ctx context.Context, frame image.Image) ([]Detection, error)
}

// TextDetector is the black-box per-frame OCR capability.
type TextDetector interface {
	EnsureLoaded(ctx context.Context) error
	Detect(ctx context.Context, frame image.Image) ([]TextRegion, error)
}

// ClassifyRegion assigns a role to a text region from its normalized
// vertical center and text length alone. Not part of the OCR capability.
func ClassifyRegion(centerY float64, textLen int) string {
	switch {
	case centerY >= 0.7 && textLen >= 12:
		return RegionSubtitle
	case centerY <= 0.3:
		return RegionTitle
	case textLen <= 20:
		return RegionCTACandidate
	default:
		return RegionOverlay
	}
}
