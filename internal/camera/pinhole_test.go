package camera

import (
	"image"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPinhole(t *testing.T, mode DepthMode, extrinsic []float64) *Pinhole {
	t.Helper()
	p, err := NewPinhole(500, 500, 320, 240, mode, extrinsic)
	require.NoError(t, err)
	p.Baseline = 0.1
	return p
}

func TestPinhole_PixelCameraRoundTrip(t *testing.T) {
	p := newTestPinhole(t, ModeDepth, nil)

	c := p.PixelToCamera(400, 100, 2.0)
	assert.InDelta(t, (400.0-320.0)*2.0/500.0, c.X, 1e-9)
	assert.InDelta(t, (100.0-240.0)*2.0/500.0, c.Y, 1e-9)
	assert.InDelta(t, 2.0, c.Z, 1e-9)

	x, y := p.CameraToPixel(c)
	assert.InDelta(t, 400, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)
}

func TestPinhole_WorldRoundTripWithExtrinsic(t *testing.T) {
	// camera sits 1m along world X
	ext := []float64{
		1, 0, 0, 1,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	p := newTestPinhole(t, ModeDepth, ext)

	w := p.PixelToWorld(320, 240, 3)
	assert.InDelta(t, 1.0, w.X, 1e-9)
	assert.InDelta(t, 3.0, w.Z, 1e-9)

	x, y, z := p.WorldToPixel(r3.Vector{X: 1, Y: 0, Z: 3})
	assert.InDelta(t, 320, x, 1e-9)
	assert.InDelta(t, 240, y, 1e-9)
	assert.InDelta(t, 3, z, 1e-9)
}

func TestPinhole_DisparityToDepth(t *testing.T) {
	p := newTestPinhole(t, ModeDisparity, nil)
	assert.InDelta(t, 500*0.1/25.0, p.DisparityToDepth(25), 1e-12)
	assert.Equal(t, 0.0, p.DisparityToDepth(0))
	assert.InDelta(t, 25, p.DepthToDisparity(p.DisparityToDepth(25)), 1e-9)

	d := newTestPinhole(t, ModeDepth, nil)
	d.DepthScale = 0.001
	assert.InDelta(t, 1.5, d.DisparityToDepth(1500), 1e-12)
}

func TestPinhole_InvIntrinsic(t *testing.T) {
	p := newTestPinhole(t, ModeDepth, nil)
	inv := p.InvIntrinsic()
	assert.InDelta(t, 1.0/500, inv.At(0, 0), 1e-12)
	assert.InDelta(t, -320.0/500, inv.At(0, 2), 1e-12)
	assert.InDelta(t, 1.0, inv.At(2, 2), 1e-12)
}

func TestNewPinhole_Invalid(t *testing.T) {
	_, err := NewPinhole(0, 500, 0, 0, ModeDepth, nil)
	require.Error(t, err)

	_, err = NewPinhole(500, 500, 0, 0, ModeDepth, []float64{1, 2, 3})
	require.Error(t, err)
}

func TestDepthMap_Crop(t *testing.T) {
	d := NewDepthMap(4, 3)
	for i := range d.Data {
		d.Data[i] = float32(i)
	}
	c := d.Crop(image.Rect(1, 1, 3, 5))
	require.Equal(t, 2, c.Width)
	require.Equal(t, 2, c.Height)
	assert.Equal(t, []float32{5, 6, 9, 10}, c.Data)
}

func TestCheckFrames(t *testing.T) {
	v := NewFrameView(newTestPinhole(t, ModeDepth, nil))
	assert.ErrorIs(t, CheckFrames(v), ErrEmptyFrame)

	v.SetFrame(image.NewRGBA(image.Rect(0, 0, 4, 4)), NewDepthMap(4, 3))
	assert.ErrorIs(t, CheckFrames(v), ErrFrameSizeMismatch)

	v.SetFrame(image.NewRGBA(image.Rect(0, 0, 4, 3)), NewDepthMap(4, 3))
	assert.NoError(t, CheckFrames(v))
}

func TestFromImage_Gray16(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.Pix = []uint8{0x01, 0x00, 0xFF, 0xFF}
	d := FromImage(img)
	assert.Equal(t, []float32{256, 65535}, d.Data)
}
