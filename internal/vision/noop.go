package vision

import (
	"context"
	"image"
)

// DisabledObjectDetector is the no-op variant used when object detection is
// turned off.
type DisabledObjectDetector struct{}

func (DisabledObjectDetector) EnsureLoaded(ctx context.Context) error { return nil }

func (DisabledObjectDetector) Detect(ctx context.Context, frame image.Image) ([]Detection, error) {
	return nil, nil
}

// DisabledTextDetector is the no-op variant used when OCR is turned off.
type DisabledTextDetector struct{}

func (DisabledTextDetector) EnsureLoaded(ctx context.Context) error { return nil }

func (DisabledTextDetector) Detect(ctx context.Context, frame image.Image) ([]TextRegion, error) {
	return nil, nil
}
