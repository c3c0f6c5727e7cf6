package vision

import (
	"image"
	"math"
)

// grayImage is an 8-bit luminance plane, row-major.
type grayImage struct {
	pix  []uint8
	w, h int
}

func (g *grayImage) at(x, y int) uint8 {
	if x < 0 {
		x = 0
	} else if x >= g.w {
		x = g.w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.h {
		y = g.h - 1
	}
	return g.pix[y*g.w+x]
}

func grayscale(img image.Image) *grayImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	g := &grayImage{pix: make([]uint8, w*h), w: w, h: h}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, gc, b, _ := img.At(x, y).RGBA()
			g.pix[i] = uint8((299*(r>>8) + 587*(gc>>8) + 114*(b>>8)) / 1000)
			i++
		}
	}
	return g
}

// EdgeMap is a binary edge mask produced by Canny detection.
type EdgeMap struct {
	Pix  []bool
	W, H int
}

// Count returns the number of edge pixels.
func (e *EdgeMap) Count() int {
	n := 0
	for _, on := range e.Pix {
		if on {
			n++
		}
	}
	return n
}

// Canny low/high hysteresis thresholds on gradient magnitude.
const (
	cannyLow  = 50.0
	cannyHigh = 150.0
)

// CannyEdges runs Canny edge detection: gaussian smoothing, Sobel gradients,
// non-maximum suppression, then double-threshold hysteresis.
func CannyEdges(img image.Image) *EdgeMap {
	g := grayscale(img)
	return cannyFromGray(g)
}

func cannyFromGray(g *grayImage) *EdgeMap {
	blurred := gaussianBlur(g)
	mag, dir := sobel(blurred)
	thin := nonMaxSuppress(mag, dir, g.w, g.h)
	return hysteresis(thin, g.w, g.h)
}

// 5x5 gaussian kernel, sigma ~1.4, integer approximation with 1/159 norm.
var gaussKernel = [5][5]float64{
	{2, 4, 5, 4, 2},
	{4, 9, 12, 9, 4},
	{5, 12, 15, 12, 5},
	{4, 9, 12, 9, 4},
	{2, 4, 5, 4, 2},
}

func gaussianBlur(g *grayImage) *grayImage {
	out := &grayImage{pix: make([]uint8, g.w*g.h), w: g.w, h: g.h}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			sum := 0.0
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sum += gaussKernel[ky+2][kx+2] * float64(g.at(x+kx, y+ky))
				}
			}
			out.pix[y*g.w+x] = uint8(sum / 159.0)
		}
	}
	return out
}

// sobel returns gradient magnitude and quantized direction (0..3 for
// 0/45/90/135 degrees) per pixel.
func sobel(g *grayImage) ([]float64, []uint8) {
	mag := make([]float64, g.w*g.h)
	dir := make([]uint8, g.w*g.h)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			gx := float64(g.at(x+1, y-1)) + 2*float64(g.at(x+1, y)) + float64(g.at(x+1, y+1)) -
				float64(g.at(x-1, y-1)) - 2*float64(g.at(x-1, y)) - float64(g.at(x-1, y+1))
			gy := float64(g.at(x-1, y+1)) + 2*float64(g.at(x, y+1)) + float64(g.at(x+1, y+1)) -
				float64(g.at(x-1, y-1)) - 2*float64(g.at(x, y-1)) - float64(g.at(x+1, y-1))

			i := y*g.w + x
			mag[i] = math.Hypot(gx, gy)

			angle := math.Atan2(gy, gx) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			switch {
			case angle < 22.5 || angle >= 157.5:
				dir[i] = 0
			case angle < 67.5:
				dir[i] = 1
			case angle < 112.5:
				dir[i] = 2
			default:
				dir[i] = 3
			}
		}
	}
	return mag, dir
}

func nonMaxSuppress(mag []float64, dir []uint8, w, h int) []float64 {
	out := make([]float64, w*h)
	get := func(x, y int) float64 {
		if x < 0 || x >= w || y < 0 || y >= h {
			return 0
		}
		return mag[y*w+x]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			var a, b float64
			switch dir[i] {
			case 0:
				a, b = get(x-1, y), get(x+1, y)
			case 1:
				a, b = get(x+1, y-1), get(x-1, y+1)
			case 2:
				a, b = get(x, y-1), get(x, y+1)
			default:
				a, b = get(x-1, y-1), get(x+1, y+1)
			}
			if mag[i] >= a && mag[i] >= b {
				out[i] = mag[i]
			}
		}
	}
	return out
}

func hysteresis(mag []float64, w, h int) *EdgeMap {
	edges := &EdgeMap{Pix: make([]bool, w*h), W: w, H: h}
	weak := make([]bool, w*h)

	var stack []int
	for i, m := range mag {
		if m >= cannyHigh {
			edges.Pix[i] = true
			stack = append(stack, i)
		} else if m >= cannyLow {
			weak[i] = true
		}
	}

	// Promote weak pixels 8-connected to a strong edge.
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				j := ny*w + nx
				if weak[j] && !edges.Pix[j] {
					edges.Pix[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}
