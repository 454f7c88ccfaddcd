// Package geom holds the small pixel-rectangle and vector helpers shared by the
// tracking packages.
package geom

import (
	"image"
	"math"

	"github.com/golang/geo/r3"
)

// ClampRegion clamps r to a frame of the given size. The origin is clamped to
// the last valid pixel and the extent is cut so the result never leaves
// [0,size.X) x [0,size.Y). The result may be empty.
func ClampRegion(r image.Rectangle, size image.Point) image.Rectangle {
	r = r.Canon()
	x := clampInt(r.Min.X, 0, size.X-1)
	y := clampInt(r.Min.Y, 0, size.Y-1)
	w := clampInt(r.Dx(), 0, size.X-x)
	h := clampInt(r.Dy(), 0, size.Y-y)
	return image.Rect(x, y, x+w, y+h)
}

// ShiftInside moves r so that it lies within the frame while keeping its size
// where possible. Windows larger than the frame are cut to the frame.
func ShiftInside(r image.Rectangle, size image.Point) image.Rectangle {
	w := min(r.Dx(), size.X)
	h := min(r.Dy(), size.Y)
	x := clampInt(r.Min.X, 0, size.X-w)
	y := clampInt(r.Min.Y, 0, size.Y-h)
	return image.Rect(x, y, x+w, y+h)
}

// Center returns the integer centre of r (origin plus half extent).
func Center(r image.Rectangle) (int, int) {
	return r.Min.X + r.Dx()/2, r.Min.Y + r.Dy()/2
}

// CenteredAt returns a rectangle of the given size whose centre is (cx, cy)
// rounded to the nearest pixel.
func CenteredAt(cx, cy float64, size image.Point) image.Rectangle {
	x := int(math.Round(cx)) - size.X/2
	y := int(math.Round(cy)) - size.Y/2
	return image.Rect(x, y, x+size.X, y+size.Y)
}

// Enlarge returns r scaled by factor around its centre.
func Enlarge(r image.Rectangle, factor int) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	x := r.Min.X - (w*(factor-1))/2
	y := r.Min.Y - (h*(factor-1))/2
	return image.Rect(x, y, x+w*factor, y+h*factor)
}

// Distance returns the Euclidean distance between two 3D points.
func Distance(a, b r3.Vector) float64 {
	return a.Sub(b).Norm()
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
