// Package appearance builds the colour and depth models of the tracked target:
// a normalised hue histogram used for backprojection, the initial depth and
// depth uncertainty, and the mean-shift kernel bandwidth.
package appearance

import (
	"errors"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// HueBins is the number of histogram bins over the 8-bit hue range [0,180).
const HueBins = 180

var (
	// ErrEmptyMask is returned when a mask selects no pixels.
	ErrEmptyMask = errors.New("appearance: mask selects no pixels")
	// ErrMaskSize is returned when the mask does not cover the frame.
	ErrMaskSize = errors.New("appearance: mask and frame sizes differ")
)

// Model is the hue histogram of the target, normalised to [0,1].
type Model struct {
	Hist [HueBins]float64
}

// ProbMap is a per-pixel probability map in [0,1], row-major.
type ProbMap struct {
	Width  int
	Height int
	Data   []float32
}

// At returns the probability of pixel (x, y).
func (p *ProbMap) At(x, y int) float32 {
	return p.Data[y*p.Width+x]
}

// NewModel computes the hue histogram of the pixels of img selected by mask
// and min-max normalises it.
func NewModel(img image.Image, mask *image.Gray) (*Model, error) {
	b := img.Bounds()
	if mask == nil || mask.Bounds().Dx() != b.Dx() || mask.Bounds().Dy() != b.Dy() {
		return nil, ErrMaskSize
	}

	var counts [HueBins]float64
	n := 0
	mb := mask.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if mask.GrayAt(mb.Min.X+x, mb.Min.Y+y).Y == 0 {
				continue
			}
			counts[hueBin(img, b.Min.X+x, b.Min.Y+y)]++
			n++
		}
	}
	if n == 0 {
		return nil, ErrEmptyMask
	}

	m := &Model{}
	lo, hi := counts[0], counts[0]
	for _, c := range counts {
		lo = min(lo, c)
		hi = max(hi, c)
	}
	if hi-lo > 0 {
		for i, c := range counts {
			m.Hist[i] = (c - lo) / (hi - lo)
		}
	}
	return m, nil
}

// Backproject looks up every pixel's hue bin in the histogram.
func (m *Model) Backproject(img image.Image) *ProbMap {
	b := img.Bounds()
	p := &ProbMap{Width: b.Dx(), Height: b.Dy(), Data: make([]float32, b.Dx()*b.Dy())}
	for y := 0; y < b.Dy(); y++ {
		row := p.Data[y*p.Width : (y+1)*p.Width]
		for x := range row {
			row[x] = float32(m.Hist[hueBin(img, b.Min.X+x, b.Min.Y+y)])
		}
	}
	return p
}

// hueBin returns the 8-bit hue (degrees/2) of a pixel.
func hueBin(img image.Image, x, y int) int {
	var c colorful.Color
	switch src := img.(type) {
	case *image.RGBA:
		i := src.PixOffset(x, y)
		c = colorful.Color{R: float64(src.Pix[i]) / 255, G: float64(src.Pix[i+1]) / 255, B: float64(src.Pix[i+2]) / 255}
	case *image.NRGBA:
		i := src.PixOffset(x, y)
		c = colorful.Color{R: float64(src.Pix[i]) / 255, G: float64(src.Pix[i+1]) / 255, B: float64(src.Pix[i+2]) / 255}
	default:
		r, g, bl, _ := img.At(x, y).RGBA()
		c = colorful.Color{R: float64(r) / 0xffff, G: float64(g) / 0xffff, B: float64(bl) / 0xffff}
	}
	h, _, _ := c.Hsv()
	bin := int(h / 2)
	if bin >= HueBins {
		bin = HueBins - 1
	}
	if bin < 0 {
		bin = 0
	}
	return bin
}

// MaskFromRect returns a frame-sized mask selecting the pixels inside r.
func MaskFromRect(size image.Point, r image.Rectangle) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return m
}
