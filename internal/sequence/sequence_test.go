package sequence

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/MeKo-Tech/vtrack/internal/testutil"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManifest() Manifest {
	return Manifest{
		Camera: CameraSpec{Fx: 525, Fy: 525, Cx: 80, Cy: 60, DepthScale: 0.001, Mode: string(camera.ModeDepth)},
		Init:   InitSpec{Window: [4]int{60, 40, 30, 30}},
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	scene := testutil.Scene{
		Size:            testutil.SmallSize,
		Background:      testutil.Gray,
		BackgroundDepth: 3000,
		Blobs:           []testutil.Blob{{Rect: image.Rect(60, 40, 90, 70), Color: testutil.Red, Depth: 1500}},
	}
	img, depth := scene.Render()
	pred := r3.Vector{X: 0.1, Y: 0.2, Z: 1.5}

	path, err := Write(dir, testManifest(), []Frame{
		{Color: img, Depth: depth},
		{Color: img, Depth: depth, Predicted: &pred},
	})
	require.NoError(t, err)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, image.Rect(60, 40, 90, 70), m.Window())

	_, ok := m.Predicted(0)
	assert.False(t, ok)
	got, ok := m.Predicted(1)
	require.True(t, ok)
	assert.Equal(t, pred, got)

	color, d, err := m.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, testutil.SmallSize, d.Size())
	assert.Equal(t, float32(1500), d.At(70, 50))
	assert.Equal(t, float32(3000), d.At(0, 0))
	r, _, _, _ := color.At(70, 50).RGBA()
	assert.Equal(t, uint32(testutil.Red.R), r>>8)

	p, err := m.Pinhole()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, p.DisparityToDepth(float64(d.At(70, 50))), 1e-9)

	mask, err := m.Mask(testutil.SmallSize)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), mask.GrayAt(70, 50).Y)
	assert.Equal(t, uint8(0), mask.GrayAt(10, 10).Y)
}

func TestMask_FromImage(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	img, depth := testutil.Scene{Size: testutil.SmallSize, BackgroundDepth: 1000}.Render()

	m := testManifest()
	path, err := Write(dir, m, []Frame{{Color: img, Depth: depth}})
	require.NoError(t, err)

	// Reuse a written colour frame as the mask source: a black frame selects nothing.
	loaded, err := Load(path)
	require.NoError(t, err)
	loaded.Init.Mask = loaded.Frames[0].Color
	mask, err := loaded.Mask(testutil.SmallSize)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), mask.GrayAt(80, 60).Y)

	_, err = loaded.Mask(image.Pt(10, 10))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	cases := map[string]string{
		"no frames": `
camera: {fx: 525, fy: 525, cx: 80, cy: 60, mode: depth}
init: {window: [0, 0, 10, 10]}
`,
		"bad mode": `
camera: {fx: 525, fy: 525, cx: 80, cy: 60, mode: lidar}
init: {window: [0, 0, 10, 10]}
frames: [{color: a.png, depth: a.tiff}]
`,
		"empty window": `
camera: {fx: 525, fy: 525, cx: 80, cy: 60, mode: depth}
init: {window: [0, 0, 0, 10]}
frames: [{color: a.png, depth: a.tiff}]
`,
		"bad prediction": `
camera: {fx: 525, fy: 525, cx: 80, cy: 60, mode: disparity, baseline: 0.1}
init: {window: [0, 0, 10, 10]}
frames: [{color: a.png, depth: a.tiff, predicted: [1, 2]}]
`,
		"not yaml": `camera: [`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoFramesSentinel(t *testing.T) {
	m := testManifest()
	assert.ErrorIs(t, m.Validate(), ErrNoFrames)

	_, err := Write(testutil.CreateTempDir(t), m, nil)
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestFrame_OutOfRange(t *testing.T) {
	m := testManifest()
	m.Frames = []FrameSpec{{Color: "a.png", Depth: "a.tiff"}}
	_, _, err := m.Frame(3)
	assert.Error(t, err)
	_, _, err = m.Frame(0)
	assert.Error(t, err)
}
