package vision

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/adlens/adlens/internal/scene"
)

// Color temperature classes.
const (
	TemperatureWarm    = "warm"
	TemperatureCool    = "cool"
	TemperatureNeutral = "neutral"
)

// DominantColor is one k-means cluster of a frame's pixels, ranked by
// population share. Percentages across a frame sum to 100 up to rounding.
type DominantColor struct {
	Hex        string  `json:"hex"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// FrameColorResult holds per-frame color metrics, keyed by FrameNumber.
type FrameColorResult struct {
	FrameNumber    int             `json:"frame_number"`
	DominantColors []DominantColor `json:"dominant_colors"`
	Temperature    string          `json:"temperature"`
	AvgSaturation  float64         `json:"avg_saturation"`
	AvgBrightness  float64         `json:"avg_brightness"`
}

// ColorSummary is what gets persisted: the aggregate across all analyzed
// frames, not per-frame detail.
type ColorSummary struct {
	FramesAnalyzed          int                `json:"frames_analyzed"`
	TopColors               []string           `json:"top_colors"`
	TemperatureDistribution map[string]float64 `json:"temperature_distribution"`
	Palette                 []string           `json:"palette"`
	AvgSaturation           float64            `json:"avg_saturation"`
	AvgBrightness           float64            `json:"avg_brightness"`
}

// ColorAnalyzer extracts dominant colors by k-means over downsampled pixels.
type ColorAnalyzer struct {
	clusters   int
	sampleSize int
}

const (
	DefaultColorClusters = 5
	colorSampleSize      = 150
	kmeansMaxIterations  = 12
)

func NewColorAnalyzer(clusters int) *ColorAnalyzer {
	if clusters <= 0 {
		clusters = DefaultColorClusters
	}
	return &ColorAnalyzer{clusters: clusters, sampleSize: colorSampleSize}
}

type rgb struct{ r, g, b float64 }

// AnalyzeFrame clusters the frame's colors and classifies its temperature.
func (a *ColorAnalyzer) AnalyzeFrame(img image.Image, frameNumber int) FrameColorResult {
	pixels := downsample(img, a.sampleSize)
	result := FrameColorResult{FrameNumber: frameNumber}
	if len(pixels) == 0 {
		result.Temperature = TemperatureNeutral
		return result
	}

	centers, counts := kmeans(pixels, a.clusters)

	total := 0
	for _, c := range counts {
		total += c
	}
	for i, center := range centers {
		if counts[i] == 0 {
			continue
		}
		result.DominantColors = append(result.DominantColors, DominantColor{
			Hex:        fmt.Sprintf("#%02x%02x%02x", uint8(center.r), uint8(center.g), uint8(center.b)),
			Name:       NameColor(uint8(center.r), uint8(center.g), uint8(center.b)),
			Percentage: float64(counts[i]) / float64(total) * 100,
		})
	}
	sort.Slice(result.DominantColors, func(i, j int) bool {
		return result.DominantColors[i].Percentage > result.DominantColors[j].Percentage
	})

	sumHueX, sumHueY, sumSat, sumVal := 0.0, 0.0, 0.0, 0.0
	for _, p := range pixels {
		h, s, v := scene.RGBToHSV(uint8(p.r), uint8(p.g), uint8(p.b))
		rad := h * math.Pi / 180
		sumHueX += math.Cos(rad)
		sumHueY += math.Sin(rad)
		sumSat += s
		sumVal += v
	}
	n := float64(len(pixels))
	meanHue := math.Atan2(sumHueY/n, sumHueX/n) * 180 / math.Pi
	if meanHue < 0 {
		meanHue += 360
	}
	result.AvgSaturation = sumSat / n
	result.AvgBrightness = sumVal / n
	result.Temperature = classifyTemperature(meanHue, result.AvgSaturation)

	return result
}

// downsample collects pixel colors from an image scaled onto a size x size
// grid by nearest sampling.
func downsample(img image.Image, size int) []rgb {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	sw, sh := w, h
	if sw > size {
		sw = size
	}
	if sh > size {
		sh = size
	}

	pixels := make([]rgb, 0, sw*sh)
	for sy := 0; sy < sh; sy++ {
		srcY := bounds.Min.Y + sy*h/sh
		for sx := 0; sx < sw; sx++ {
			srcX := bounds.Min.X + sx*w/sw
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			pixels = append(pixels, rgb{float64(r >> 8), float64(g >> 8), float64(b >> 8)})
		}
	}
	return pixels
}

// kmeans clusters pixels into k centers, returning centers and per-cluster
// population counts. Deterministic seeding: initial centers are spread
// evenly through the pixel slice.
func kmeans(pixels []rgb, k int) ([]rgb, []int) {
	if k > len(pixels) {
		k = len(pixels)
	}
	centers := make([]rgb, k)
	for i := 0; i < k; i++ {
		centers[i] = pixels[i*len(pixels)/k]
	}

	assign := make([]int, len(pixels))
	counts := make([]int, k)

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, p := range pixels {
			best, bestDist := 0, math.MaxFloat64
			for c, center := range centers {
				d := sqDist(p, center)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([]rgb, k)
		counts = make([]int, k)
		for i, p := range pixels {
			c := assign[i]
			sums[c].r += p.r
			sums[c].g += p.g
			sums[c].b += p.b
			counts[c]++
		}
		for c := range centers {
			if counts[c] > 0 {
				centers[c] = rgb{
					sums[c].r / float64(counts[c]),
					sums[c].g / float64(counts[c]),
					sums[c].b / float64(counts[c]),
				}
			}
		}
	}

	return centers, counts
}

func sqDist(a, b rgb) float64 {
	dr, dg, db := a.r-b.r, a.g-b.g, a.b-b.b
	return dr*dr + dg*dg + db*db
}

// NameColor maps an RGB color to a coarse name via HSV thresholds:
// black/white/gray by low value or saturation, then hue bands.
func NameColor(r, g, b uint8) string {
	h, s, v := scene.RGBToHSV(r, g, b)

	switch {
	case v < 0.2:
		return "black"
	case s < 0.15 && v > 0.85:
		return "white"
	case s < 0.15:
		return "gray"
	}

	switch {
	case h < 15 || h >= 345:
		return "red"
	case h < 45:
		return "orange"
	case h < 70:
		return "yellow"
	case h < 170:
		return "green"
	case h < 260:
		return "blue"
	case h < 290:
		return "purple"
	default:
		return "pink"
	}
}

// classifyTemperature derives a coarse temperature from mean hue and
// saturation. Washed-out frames read as neutral regardless of hue.
func classifyTemperature(hue, saturation float64) string {
	if saturation < 0.2 {
		return TemperatureNeutral
	}
	switch {
	case hue < 90 || hue >= 330:
		return TemperatureWarm
	case hue >= 90 && hue < 270:
		return TemperatureCool
	default:
		return TemperatureNeutral
	}
}

// SummarizeColors aggregates per-frame results into the persisted summary:
// most frequent color names, temperature shares, and the representative hex
// palette.
func SummarizeColors(results []FrameColorResult) *ColorSummary {
	if len(results) == 0 {
		return nil
	}

	nameCounts := make(map[string]int)
	hexCounts := make(map[string]int)
	tempCounts := make(map[string]int)
	summary := &ColorSummary{
		FramesAnalyzed:          len(results),
		TemperatureDistribution: make(map[string]float64),
	}

	for _, r := range results {
		tempCounts[r.Temperature]++
		summary.AvgSaturation += r.AvgSaturation
		summary.AvgBrightness += r.AvgBrightness
		for _, dc := range r.DominantColors {
			nameCounts[dc.Name]++
			hexCounts[dc.Hex]++
		}
	}

	n := float64(len(results))
	summary.AvgSaturation /= n
	summary.AvgBrightness /= n
	for temp, count := range tempCounts {
		summary.TemperatureDistribution[temp] = float64(count) / n
	}
	summary.TopColors = topKeys(nameCounts, 5)
	summary.Palette = topKeys(hexCounts, 8)

	return summary
}

func topKeys(counts map[string]int, limit int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
