package vision

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func uniformImage(c color.RGBA, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRect(img, 0, 0, w, h, c)
	return img
}

func TestAnalyzeComposition_UniformFrame(t *testing.T) {
	img := uniformImage(color.RGBA{128, 128, 128, 255}, 64, 64)

	result := AnalyzeComposition(img, 7)

	if result.FrameNumber != 7 {
		t.Errorf("Expected frame number 7, got %d", result.FrameNumber)
	}
	if math.Abs(result.Brightness-128) > 1 {
		t.Errorf("Expected brightness near 128, got %f", result.Brightness)
	}
	if result.Contrast > 1 {
		t.Errorf("Expected near-zero contrast on a flat frame, got %f", result.Contrast)
	}
	if result.EdgeDensity > 0.01 {
		t.Errorf("Expected no edges on a flat frame, got density %f", result.EdgeDensity)
	}
	if result.Symmetry < 0.99 {
		t.Errorf("Expected perfect symmetry on a flat frame, got %f", result.Symmetry)
	}
	if result.VisualWeight != WeightCenter {
		t.Errorf("Expected centered weight, got %s", result.VisualWeight)
	}
	if result.VisualComplexity > 0.01 {
		t.Errorf("Expected zero complexity for a single hue, got %f", result.VisualComplexity)
	}
}

func TestHorizontalSymmetry(t *testing.T) {
	t.Run("mirror", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		fillRect(img, 0, 0, 64, 64, color.RGBA{200, 200, 200, 255})
		fillRect(img, 8, 8, 24, 56, color.RGBA{20, 20, 20, 255})
		fillRect(img, 40, 8, 56, 56, color.RGBA{20, 20, 20, 255})

		if s := horizontalSymmetry(grayscale(img)); s < 0.99 {
			t.Errorf("Expected symmetry near 1 for mirrored frame, got %f", s)
		}
	})

	t.Run("split contrast", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		fillRect(img, 0, 0, 32, 64, color.RGBA{0, 0, 0, 255})
		fillRect(img, 32, 0, 64, 64, color.RGBA{255, 255, 255, 255})

		if s := horizontalSymmetry(grayscale(img)); s > 0.01 {
			t.Errorf("Expected symmetry near 0 for split-contrast frame, got %f", s)
		}
	})
}

func TestVisualWeight(t *testing.T) {
	t.Run("dark left half", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		fillRect(img, 0, 0, 32, 64, color.RGBA{10, 10, 10, 255})
		fillRect(img, 32, 0, 64, 64, color.RGBA{245, 245, 245, 255})

		if w := visualWeight(grayscale(img)); w != WeightLeft {
			t.Errorf("Expected left weight, got %s", w)
		}
	})

	t.Run("dark bottom half", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		fillRect(img, 0, 0, 64, 32, color.RGBA{245, 245, 245, 255})
		fillRect(img, 0, 32, 64, 64, color.RGBA{10, 10, 10, 255})

		if w := visualWeight(grayscale(img)); w != WeightBottom {
			t.Errorf("Expected bottom weight, got %s", w)
		}
	})
}

func TestCannyEdges_DetectsBoundary(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	fillRect(img, 0, 0, 32, 64, color.RGBA{0, 0, 0, 255})
	fillRect(img, 32, 0, 64, 64, color.RGBA{255, 255, 255, 255})

	edges := CannyEdges(img)
	if edges.Count() == 0 {
		t.Error("Expected edges along the black/white boundary, got none")
	}
}

func TestSummarizeComposition(t *testing.T) {
	results := []CompositionResult{
		{Brightness: 100, Contrast: 10, Symmetry: 1.0, VisualWeight: WeightCenter},
		{Brightness: 200, Contrast: 30, Symmetry: 0.5, VisualWeight: WeightLeft},
	}

	summary := SummarizeComposition(results)
	if summary == nil {
		t.Fatal("Expected summary, got nil")
	}
	if summary.FramesAnalyzed != 2 {
		t.Errorf("Expected 2 frames analyzed, got %d", summary.FramesAnalyzed)
	}
	if math.Abs(summary.AvgBrightness-150) > 1e-9 {
		t.Errorf("Expected average brightness 150, got %f", summary.AvgBrightness)
	}
	if math.Abs(summary.WeightDistribution[WeightCenter]-0.5) > 1e-9 {
		t.Errorf("Expected center share 0.5, got %f", summary.WeightDistribution[WeightCenter])
	}

	if SummarizeComposition(nil) != nil {
		t.Error("Expected nil summary for no results")
	}
}
