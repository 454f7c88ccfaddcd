package segment

import (
	"fmt"
	"image"
	"math"

	"github.com/MeKo-Tech/vtrack/internal/camera"
)

// Crop is the neighbourhood handed to the segmenter.
type Crop struct {
	Rect  image.Rectangle // frame coordinates
	Depth []float64       // metric depth, 0 where invalid
	// Gray is the depth min-max normalised to 8 bits and inverted so that
	// nearer surfaces are brighter. Invalid pixels are 0.
	Gray  []uint8
	Color []uint8 // packed RGB
}

// NewCrop extracts r, clipped to the frame, from the view's current frames.
func NewCrop(v camera.View, r image.Rectangle) (*Crop, error) {
	if err := camera.CheckFrames(v); err != nil {
		return nil, err
	}
	depth := v.Depth()
	r = r.Intersect(depth.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("%w: %v", ErrEmptyRegion, r)
	}

	w, h := r.Dx(), r.Dy()
	c := &Crop{
		Rect:  r,
		Depth: make([]float64, w*h),
		Gray:  make([]uint8, w*h),
		Color: make([]uint8, 3*w*h),
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			z := v.DisparityToDepth(float64(depth.At(r.Min.X+x, r.Min.Y+y)))
			if z <= 0 || math.IsInf(z, 0) || math.IsNaN(z) {
				z = 0
			}
			c.Depth[y*w+x] = z
			if z > 0 {
				lo = min(lo, z)
				hi = max(hi, z)
			}
		}
	}
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}
	for i, z := range c.Depth {
		if z == 0 {
			continue
		}
		c.Gray[i] = 255 - uint8(math.Round((z-lo)*scale))
	}

	fillRGB(c.Color, v.Color(), r)
	return c, nil
}

func fillRGB(dst []uint8, img image.Image, r image.Rectangle) {
	off := img.Bounds().Min
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			px, py := off.X+x, off.Y+y
			switch src := img.(type) {
			case *image.RGBA:
				o := src.PixOffset(px, py)
				copy(dst[i:i+3], src.Pix[o:o+3])
			case *image.NRGBA:
				o := src.PixOffset(px, py)
				copy(dst[i:i+3], src.Pix[o:o+3])
			default:
				cr, cg, cb, _ := img.At(px, py).RGBA()
				dst[i], dst[i+1], dst[i+2] = uint8(cr>>8), uint8(cg>>8), uint8(cb>>8)
			}
			i += 3
		}
	}
}
