package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/stretchr/testify/require"
)

// Common synthetic frame sizes.
var (
	SmallSize  = image.Pt(160, 120)
	MediumSize = image.Pt(320, 240)
)

// DepthScale converts the synthetic raw depth units (millimetres) to metres.
const DepthScale = 0.001

// Blob is an axis-aligned patch of uniform colour at a fixed raw depth.
type Blob struct {
	Rect  image.Rectangle
	Color color.RGBA
	Depth float32
}

// Scene describes a synthetic RGB-D frame: a background plane with blobs
// painted over it in order, later blobs in front of earlier ones in the image.
type Scene struct {
	Size            image.Point
	Background      color.RGBA
	BackgroundDepth float32
	Blobs           []Blob
}

// Render produces the colour frame and raw depth frame of the scene.
func (s Scene) Render() (*image.RGBA, *camera.DepthMap) {
	img := image.NewRGBA(image.Rect(0, 0, s.Size.X, s.Size.Y))
	draw.Draw(img, img.Bounds(), &image.Uniform{s.Background}, image.Point{}, draw.Src)

	depth := camera.NewDepthMap(s.Size.X, s.Size.Y)
	for i := range depth.Data {
		depth.Data[i] = s.BackgroundDepth
	}

	for _, b := range s.Blobs {
		r := b.Rect.Intersect(img.Bounds())
		draw.Draw(img, r, &image.Uniform{b.Color}, image.Point{}, draw.Src)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				depth.Set(x, y, b.Depth)
			}
		}
	}
	return img, depth
}

// NewCamera returns a depth-mode pinhole camera centred on a frame of the
// given size, reading raw depth in millimetres.
func NewCamera(t testing.TB, size image.Point) *camera.Pinhole {
	t.Helper()
	p, err := camera.NewPinhole(525, 525, float64(size.X)/2, float64(size.Y)/2, camera.ModeDepth, nil)
	require.NoError(t, err)
	p.DepthScale = DepthScale
	return p
}

// NewView renders the scene and binds it to a view over a fresh camera.
func NewView(t testing.TB, s Scene) *camera.FrameView {
	t.Helper()
	v := camera.NewFrameView(NewCamera(t, s.Size))
	img, depth := s.Render()
	v.SetFrame(img, depth)
	return v
}

// Red, Green and Blue are saturated blob colours with well separated hues.
var (
	Red   = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	Green = color.RGBA{R: 20, G: 200, B: 40, A: 255}
	Blue  = color.RGBA{R: 30, G: 40, B: 210, A: 255}
	Gray  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)
