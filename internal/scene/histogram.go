package scene

import (
	"image"
	"math"
)

// Histogram bin counts for the hue×saturation histogram used in boundary
// detection. Hue covers [0,360) and saturation [0,1].
const (
	hueBins = 32
	satBins = 32
)

// HueSatHistogram computes a normalized 2-D hue×saturation histogram. The
// returned slice has hueBins*satBins entries summing to 1 (all zero for an
// empty image).
func HueSatHistogram(img image.Image) []float64 {
	hist := make([]float64, hueBins*satBins)
	bounds := img.Bounds()
	total := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			h, s, _ := RGBToHSV(uint8(r>>8), uint8(g>>8), uint8(b>>8))

			hi := int(h / 360.0 * hueBins)
			if hi >= hueBins {
				hi = hueBins - 1
			}
			si := int(s * satBins)
			if si >= satBins {
				si = satBins - 1
			}
			hist[hi*satBins+si]++
			total++
		}
	}

	if total > 0 {
		for i := range hist {
			hist[i] /= float64(total)
		}
	}
	return hist
}

// Bhattacharyya returns the Bhattacharyya distance between two normalized
// histograms: 0 for identical distributions, 1 for disjoint support.
func Bhattacharyya(h1, h2 []float64) float64 {
	n := len(h1)
	if len(h2) < n {
		n = len(h2)
	}
	bc := 0.0
	for i := 0; i < n; i++ {
		bc += math.Sqrt(h1[i] * h2[i])
	}
	if bc > 1 {
		bc = 1
	}
	return math.Sqrt(1 - bc)
}

// RGBToHSV converts 8-bit RGB to hue in [0,360), saturation and value in
// [0,1].
func RGBToHSV(r, g, b uint8) (float64, float64, float64) {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	delta := max - min

	v := max
	s := 0.0
	if max > 0 {
		s = delta / max
	}

	h := 0.0
	if delta > 0 {
		switch max {
		case rf:
			h = 60 * math.Mod((gf-bf)/delta, 6)
		case gf:
			h = 60 * ((bf-rf)/delta + 2)
		default:
			h = 60 * ((rf-gf)/delta + 4)
		}
		if h < 0 {
			h += 360
		}
	}

	return h, s, v
}
