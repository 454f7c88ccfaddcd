package appearance

import (
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/MeKo-Tech/vtrack/internal/camera"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Config holds the depth-model tunables.
type Config struct {
	// LowPercentile and HighPercentile select the depth extremes under the
	// mask from which the depth uncertainty is derived.
	LowPercentile  float64
	HighPercentile float64
}

// DefaultConfig returns the default depth-model configuration.
func DefaultConfig() Config {
	return Config{
		LowPercentile:  0.05,
		HighPercentile: 0.95,
	}
}

// DepthEstimate is the initial depth of the target and its uncertainty.
type DepthEstimate struct {
	Z      float64
	ZRange float64
}

// EstimateDepth computes the mean depth under mask and the half-width of the
// depth spread of the median-filtered depth inside window under mask.
func EstimateDepth(v camera.View, mask *image.Gray, window image.Rectangle, cfg Config) (DepthEstimate, error) {
	depth := v.Depth()
	if mask == nil || mask.Bounds().Dx() != depth.Width || mask.Bounds().Dy() != depth.Height {
		return DepthEstimate{}, ErrMaskSize
	}
	mb := mask.Bounds()
	selected := func(x, y int) bool { return mask.GrayAt(mb.Min.X+x, mb.Min.Y+y).Y != 0 }

	var sum float64
	n := 0
	for y := 0; y < depth.Height; y++ {
		for x := 0; x < depth.Width; x++ {
			if selected(x, y) {
				sum += float64(depth.At(x, y))
				n++
			}
		}
	}
	if n == 0 {
		return DepthEstimate{}, ErrEmptyMask
	}
	est := DepthEstimate{Z: v.DisparityToDepth(sum / float64(n))}

	window = window.Intersect(depth.Bounds())
	if window.Empty() {
		return DepthEstimate{}, fmt.Errorf("window %v outside frame", window)
	}
	filtered := medianFilter3(depth.Crop(window))

	var values []float64
	for y := 0; y < filtered.Height; y++ {
		for x := 0; x < filtered.Width; x++ {
			if selected(window.Min.X+x, window.Min.Y+y) {
				values = append(values, float64(filtered.At(x, y)))
			}
		}
	}
	if len(values) == 0 {
		return est, nil
	}
	slices.Sort(values)
	lo := v.DisparityToDepth(stat.Quantile(cfg.LowPercentile, stat.Empirical, values, nil))
	hi := v.DisparityToDepth(stat.Quantile(cfg.HighPercentile, stat.Empirical, values, nil))
	est.ZRange = math.Abs(lo-hi) / 2
	return est, nil
}

// medianFilter3 applies a 3x3 median filter with replicated borders.
func medianFilter3(src *camera.DepthMap) *camera.DepthMap {
	out := camera.NewDepthMap(src.Width, src.Height)
	var win [9]float32
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			k := 0
			for dy := -1; dy <= 1; dy++ {
				yy := min(max(y+dy, 0), src.Height-1)
				for dx := -1; dx <= 1; dx++ {
					xx := min(max(x+dx, 0), src.Width-1)
					win[k] = src.At(xx, yy)
					k++
				}
			}
			s := win[:]
			slices.Sort(s)
			out.Set(x, y, s[4])
		}
	}
	return out
}

// EstimateBandwidth derives the mean-shift bandwidth from the camera-space
// distance between the window's top-left corner and centre at depth z,
// averaged with the depth uncertainty.
func EstimateBandwidth(window image.Rectangle, z, zRange float64, invK *mat.Dense) float64 {
	x, y := float64(window.Min.X), float64(window.Min.Y)
	cx := float64(window.Min.X + window.Dx()/2)
	cy := float64(window.Min.Y + window.Dy()/2)

	var p1, p2 mat.VecDense
	p1.MulVec(invK, mat.NewVecDense(3, []float64{x * z, y * z, z}))
	p2.MulVec(invK, mat.NewVecDense(3, []float64{cx * z, cy * z, z}))

	var d mat.VecDense
	d.SubVec(&p1, &p2)
	dist := mat.Norm(&d, 2)

	return (dist + math.Abs(zRange)) / 2
}
