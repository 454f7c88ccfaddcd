package camera

import (
	"errors"
	"image"
)

// ErrEmptyFrame is returned when a view has no colour or depth frame bound.
var ErrEmptyFrame = errors.New("camera: empty frame")

// DepthMap is a row-major grid of raw depth sensor values. Depending on the
// sensor these are disparities or depths; View.DisparityToDepth converts them.
type DepthMap struct {
	Width  int
	Height int
	Data   []float32
}

// NewDepthMap allocates a zeroed depth map.
func NewDepthMap(width, height int) *DepthMap {
	return &DepthMap{Width: width, Height: height, Data: make([]float32, width*height)}
}

// At returns the raw value at (x, y). Coordinates must be in range.
func (d *DepthMap) At(x, y int) float32 {
	return d.Data[y*d.Width+x]
}

// Set stores a raw value at (x, y).
func (d *DepthMap) Set(x, y int, v float32) {
	d.Data[y*d.Width+x] = v
}

// Size returns the map dimensions as a point.
func (d *DepthMap) Size() image.Point {
	return image.Pt(d.Width, d.Height)
}

// Bounds returns the map rectangle anchored at the origin.
func (d *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.Width, d.Height)
}

// Empty reports whether the map carries no pixels.
func (d *DepthMap) Empty() bool {
	return d == nil || d.Width <= 0 || d.Height <= 0 || len(d.Data) < d.Width*d.Height
}

// Crop copies the values inside r (intersected with the map bounds) into a new map.
func (d *DepthMap) Crop(r image.Rectangle) *DepthMap {
	r = r.Intersect(d.Bounds())
	out := NewDepthMap(r.Dx(), r.Dy())
	for y := 0; y < out.Height; y++ {
		src := (r.Min.Y+y)*d.Width + r.Min.X
		copy(out.Data[y*out.Width:(y+1)*out.Width], d.Data[src:src+out.Width])
	}
	return out
}

// FromGray16 converts a 16-bit grayscale image into a depth map.
func FromGray16(img *image.Gray16) *DepthMap {
	b := img.Bounds()
	out := NewDepthMap(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x-b.Min.X, y-b.Min.Y, float32(img.Gray16At(x, y).Y))
		}
	}
	return out
}

// FromImage converts any image into a depth map using its luminance. 16-bit
// sources keep their full range; everything else is read as 8-bit.
func FromImage(img image.Image) *DepthMap {
	switch src := img.(type) {
	case *image.Gray16:
		return FromGray16(src)
	case *image.Gray:
		b := src.Bounds()
		out := NewDepthMap(b.Dx(), b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out.Set(x-b.Min.X, y-b.Min.Y, float32(src.GrayAt(x, y).Y))
			}
		}
		return out
	}
	b := img.Bounds()
	out := NewDepthMap(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			// ITU-R 601 luma on 16-bit channels, scaled to 8 bits.
			lum := (19595*r + 38470*g + 7471*bl + 1<<15) >> 24
			out.Set(x-b.Min.X, y-b.Min.Y, float32(lum))
		}
	}
	return out
}
