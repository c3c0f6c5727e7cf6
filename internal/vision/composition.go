package vision

import (
	"image"
	"math"

	"github.com/adlens/adlens/internal/scene"
)

// Visual-weight balance classes.
const (
	WeightCenter = "center"
	WeightLeft   = "left"
	WeightRight  = "right"
	WeightTop    = "top"
	WeightBottom = "bottom"
)

// CompositionResult holds per-frame visual-layout metrics. One record per
// analyzed frame, keyed by FrameNumber; all metrics are dimensionless and
// independent of frame order.
type CompositionResult struct {
	FrameNumber       int     `json:"frame_number"`
	Brightness        float64 `json:"brightness"`
	Contrast          float64 `json:"contrast"`
	RuleOfThirdsScore float64 `json:"rule_of_thirds_score"`
	VisualWeight      string  `json:"visual_weight"`
	EdgeDensity       float64 `json:"edge_density"`
	Symmetry          float64 `json:"symmetry"`
	VisualComplexity  float64 `json:"visual_complexity"`
}

// CompositionSummary is the per-field mean/ratio aggregate across all
// analyzed frames.
type CompositionSummary struct {
	FramesAnalyzed     int                `json:"frames_analyzed"`
	AvgBrightness      float64            `json:"avg_brightness"`
	AvgContrast        float64            `json:"avg_contrast"`
	AvgRuleOfThirds    float64            `json:"avg_rule_of_thirds"`
	AvgEdgeDensity     float64            `json:"avg_edge_density"`
	AvgSymmetry        float64            `json:"avg_symmetry"`
	AvgComplexity      float64            `json:"avg_complexity"`
	WeightDistribution map[string]float64 `json:"weight_distribution"`
}

// Fraction of frame width/height treated as "on" a rule-of-thirds line.
const thirdsMargin = 0.05

// Hue resolution for the complexity entropy; matches the 0-179 degree
// half-resolution hue convention.
const hueEntropyBins = 180

// AnalyzeComposition computes all layout metrics for one frame. Stateless;
// safe to call concurrently on different frames.
func AnalyzeComposition(img image.Image, frameNumber int) CompositionResult {
	g := grayscale(img)
	edges := cannyFromGray(g)

	mean, stddev := meanStddev(g)

	return CompositionResult{
		FrameNumber:       frameNumber,
		Brightness:        mean,
		Contrast:          stddev,
		RuleOfThirdsScore: ruleOfThirds(edges),
		VisualWeight:      visualWeight(g),
		EdgeDensity:       float64(edges.Count()) / float64(g.w*g.h),
		Symmetry:          horizontalSymmetry(g),
		VisualComplexity:  hueComplexity(img),
	}
}

func meanStddev(g *grayImage) (float64, float64) {
	n := float64(len(g.pix))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, p := range g.pix {
		sum += float64(p)
	}
	mean := sum / n

	variance := 0.0
	for _, p := range g.pix {
		d := float64(p) - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / n)
}

// ruleOfThirds scores the fraction of edge pixels falling inside a margin
// band around the four thirds lines, scaled x3 and capped at 1.
func ruleOfThirds(edges *EdgeMap) float64 {
	total := edges.Count()
	if total == 0 {
		return 0
	}

	mx := float64(edges.W) * thirdsMargin
	my := float64(edges.H) * thirdsMargin
	x1, x2 := float64(edges.W)/3, 2*float64(edges.W)/3
	y1, y2 := float64(edges.H)/3, 2*float64(edges.H)/3

	onLines := 0
	for y := 0; y < edges.H; y++ {
		for x := 0; x < edges.W; x++ {
			if !edges.Pix[y*edges.W+x] {
				continue
			}
			fx, fy := float64(x), float64(y)
			if math.Abs(fx-x1) <= mx || math.Abs(fx-x2) <= mx ||
				math.Abs(fy-y1) <= my || math.Abs(fy-y2) <= my {
				onLines++
			}
		}
	}

	score := float64(onLines) / float64(total) * 3
	if score > 1 {
		score = 1
	}
	return score
}

// visualWeight classifies where the composition's weight sits. Darker
// regions are heavier; a 10% imbalance deadband keeps near-balanced frames
// centered.
func visualWeight(g *grayImage) string {
	halfW, halfH := g.w/2, g.h/2
	if halfW == 0 || halfH == 0 {
		return WeightCenter
	}

	darkness := func(x0, y0, x1, y1 int) float64 {
		sum := 0.0
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				sum += 255 - float64(g.pix[y*g.w+x])
			}
		}
		return sum / float64((x1-x0)*(y1-y0))
	}

	left := (darkness(0, 0, halfW, halfH) + darkness(0, halfH, halfW, g.h)) / 2
	right := (darkness(halfW, 0, g.w, halfH) + darkness(halfW, halfH, g.w, g.h)) / 2
	top := (darkness(0, 0, halfW, halfH) + darkness(halfW, 0, g.w, halfH)) / 2
	bottom := (darkness(0, halfH, halfW, g.h) + darkness(halfW, halfH, g.w, g.h)) / 2

	const deadband = 0.10
	imbalance := func(a, b float64) float64 {
		if a+b == 0 {
			return 0
		}
		return (a - b) / (a + b)
	}

	horiz := imbalance(left, right)
	vert := imbalance(top, bottom)

	if math.Abs(horiz) <= deadband && math.Abs(vert) <= deadband {
		return WeightCenter
	}
	if math.Abs(horiz) >= math.Abs(vert) {
		if horiz > 0 {
			return WeightLeft
		}
		return WeightRight
	}
	if vert > 0 {
		return WeightTop
	}
	return WeightBottom
}

// horizontalSymmetry is 1 - mean(|left - mirrored right|)/128, clipped at 0.
// A mirror-symmetric frame scores 1.
func horizontalSymmetry(g *grayImage) float64 {
	halfW := g.w / 2
	if halfW == 0 {
		return 1
	}
	sum := 0.0
	for y := 0; y < g.h; y++ {
		for x := 0; x < halfW; x++ {
			l := float64(g.pix[y*g.w+x])
			r := float64(g.pix[y*g.w+(g.w-1-x)])
			sum += math.Abs(l - r)
		}
	}
	meanDiff := sum / float64(halfW*g.h)
	score := 1 - meanDiff/128
	if score < 0 {
		score = 0
	}
	return score
}

// hueComplexity is normalized Shannon entropy of the hue histogram.
func hueComplexity(img image.Image) float64 {
	hist := make([]float64, hueEntropyBins)
	bounds := img.Bounds()
	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			h, _, _ := scene.RGBToHSV(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			bin := int(h / 2)
			if bin >= hueEntropyBins {
				bin = hueEntropyBins - 1
			}
			hist[bin]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := c / total
		entropy -= p * math.Log2(p)
	}
	return entropy / math.Log2(hueEntropyBins)
}

// SummarizeComposition folds per-frame results into the persisted aggregate.
func SummarizeComposition(results []CompositionResult) *CompositionSummary {
	if len(results) == 0 {
		return nil
	}

	summary := &CompositionSummary{
		FramesAnalyzed:     len(results),
		WeightDistribution: make(map[string]float64),
	}
	weightCounts := make(map[string]int)

	for _, r := range results {
		summary.AvgBrightness += r.Brightness
		summary.AvgContrast += r.Contrast
		summary.AvgRuleOfThirds += r.RuleOfThirdsScore
		summary.AvgEdgeDensity += r.EdgeDensity
		summary.AvgSymmetry += r.Symmetry
		summary.AvgComplexity += r.VisualComplexity
		weightCounts[r.VisualWeight]++
	}

	n := float64(len(results))
	summary.AvgBrightness /= n
	summary.AvgContrast /= n
	summary.AvgRuleOfThirds /= n
	summary.AvgEdgeDensity /= n
	summary.AvgSymmetry /= n
	summary.AvgComplexity /= n
	for weight, count := range weightCounts {
		summary.WeightDistribution[weight] = float64(count) / n
	}

	return summary
}
