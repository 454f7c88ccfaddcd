package segment

import (
	"image"
	"testing"

	"github.com/MeKo-Tech/vtrack/internal/testutil"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	blobA = image.Rect(20, 40, 50, 70)
	blobB = image.Rect(90, 40, 120, 70)
	crop  = image.Rect(0, 20, 140, 90)
)

func twoBlobScene() testutil.Scene {
	return testutil.Scene{
		Size:            testutil.SmallSize,
		Background:      testutil.Gray,
		BackgroundDepth: 3000,
		Blobs: []testutil.Blob{
			{Rect: blobA, Color: testutil.Red, Depth: 1500},
			{Rect: blobB, Color: testutil.Blue, Depth: 1600},
		},
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.OpenKernel = 4
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MinPercentile = 0.7
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxPercentile = 1.5
	assert.Error(t, cfg.Validate())
}

func TestNewCrop(t *testing.T) {
	v := testutil.NewView(t, twoBlobScene())

	c, err := NewCrop(v, image.Rect(-10, -10, 40, 50))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 50), c.Rect)

	// Nearest surface is brightest after inversion.
	assert.Equal(t, uint8(255), c.Gray[45*40+25])
	assert.Equal(t, uint8(0), c.Gray[0])
	assert.InDelta(t, 1.5, c.Depth[45*40+25], 1e-9)
	assert.Equal(t, []uint8{220, 20, 20}, c.Color[3*(45*40+25):3*(45*40+25)+3])

	_, err = NewCrop(v, image.Rect(500, 500, 510, 510))
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestDetect_TwoBlobs(t *testing.T) {
	v := testutil.NewView(t, twoBlobScene())
	s := New(DefaultConfig())

	objs, labels, err := s.Detect(v, crop)
	require.NoError(t, err)
	assert.Equal(t, 4, labels.Count)
	assert.Equal(t, int32(3), labels.Border())
	require.Len(t, objs, 3)

	a, b, bg := objs[0], objs[1], objs[2]

	assert.InDelta(t, 1.5, a.Median, 1e-9)
	assert.InDelta(t, 1.5, a.Min, 1e-9)
	assert.InDelta(t, 1.5, a.Max, 1e-9)
	assert.True(t, a.Bounds.In(blobA), "bounds %v", a.Bounds)
	assert.True(t, a.Region.Contains(35, 55))
	assert.False(t, a.Region.Contains(105, 55))
	assert.Less(t, a.Position.X, 0.0)

	assert.InDelta(t, 1.6, b.Median, 1e-9)
	assert.True(t, b.Bounds.In(blobB), "bounds %v", b.Bounds)
	assert.True(t, b.Region.Contains(105, 55))
	assert.Greater(t, b.Position.X, 0.0)

	assert.InDelta(t, 3.0, bg.Median, 1e-9)
	assert.Equal(t, labels.Border(), bg.Region.ID)
	assert.Greater(t, bg.Region.Area, a.Region.Area+b.Region.Area)

	for _, o := range objs {
		assert.Equal(t, "unknown", o.Type.String())
		assert.LessOrEqual(t, o.Min, o.Median)
		assert.LessOrEqual(t, o.Median, o.Max)
	}
}

func TestDetect_ExcludeBorderRegion(t *testing.T) {
	v := testutil.NewView(t, twoBlobScene())
	cfg := DefaultConfig()
	cfg.IncludeBorderRegion = false

	objs, _, err := New(cfg).Detect(v, crop)
	require.NoError(t, err)
	assert.Len(t, objs, 2)
}

func TestDetect_UniformDepth(t *testing.T) {
	v := testutil.NewView(t, testutil.Scene{
		Size:            testutil.SmallSize,
		Background:      testutil.Gray,
		BackgroundDepth: 2000,
	})

	objs, labels, err := New(DefaultConfig()).Detect(v, crop)
	require.NoError(t, err)
	assert.Empty(t, objs)
	assert.Equal(t, 2, labels.Count)
}

func TestSegment_Idempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	s := New(DefaultConfig())

	properties.Property("segmenting the same crop twice yields the same labels", prop.ForAll(
		func(x, y, size, depth int) bool {
			v := testutil.NewView(t, testutil.Scene{
				Size:            testutil.SmallSize,
				Background:      testutil.Gray,
				BackgroundDepth: 3000,
				Blobs: []testutil.Blob{
					{Rect: image.Rect(x, y, x+size, y+size), Color: testutil.Green, Depth: float32(depth)},
					{Rect: blobA, Color: testutil.Red, Depth: 1500},
				},
			})
			c, err := NewCrop(v, v.Depth().Bounds())
			if err != nil {
				return false
			}
			first := s.Segment(c)
			second := s.Segment(c)
			if first.Count != second.Count {
				return false
			}
			for i := range first.Data {
				if first.Data[i] != second.Data[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 140),
		gen.IntRange(0, 100),
		gen.IntRange(4, 40),
		gen.IntRange(500, 2900),
	))

	properties.TestingRun(t)
}
