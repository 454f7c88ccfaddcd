package meanshift

import (
	"image"
	"math"
	"testing"

	"github.com/MeKo-Tech/vtrack/internal/appearance"
	"github.com/MeKo-Tech/vtrack/internal/geom"
	"github.com/MeKo-Tech/vtrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gaussianPeak returns a probability map with a single Gaussian peak.
func gaussianPeak(size image.Point, px, py, sigma float64) *appearance.ProbMap {
	p := &appearance.ProbMap{Width: size.X, Height: size.Y, Data: make([]float32, size.X*size.Y)}
	for y := range size.Y {
		for x := range size.X {
			dx, dy := float64(x)-px, float64(y)-py
			p.Data[y*size.X+x] = float32(math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma)))
		}
	}
	return p
}

func flatScene(depth float32) testutil.Scene {
	return testutil.Scene{Size: testutil.MediumSize, Background: testutil.Gray, BackgroundDepth: depth}
}

func TestRun_ConvergesOnPeak(t *testing.T) {
	v := testutil.NewView(t, flatScene(1500))
	prob := gaussianPeak(testutil.MediumSize, 150, 110, 3)

	tr := New(Config{MaxIterations: 50, Epsilon: 1e-6, Workers: 4})
	start := geom.CenteredAt(156, 105, image.Pt(30, 30))

	res := tr.Run(prob, v, start, 1.5, 0.05)

	require.True(t, res.Converged, "expected convergence, got %d iterations", res.Iterations)
	cx, cy := geom.Center(res.Window)
	assert.InDelta(t, 150, cx, 1)
	assert.InDelta(t, 110, cy, 1)
	assert.InDelta(t, 1.5, res.Depth, 1e-6)
	assert.Equal(t, start.Size(), res.Window.Size())
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	v := testutil.NewView(t, flatScene(2000))
	prob := gaussianPeak(testutil.MediumSize, 100, 80, 6)
	start := geom.CenteredAt(108, 86, image.Pt(40, 40))

	seq := New(Config{MaxIterations: 10, Epsilon: 1e-9, Workers: 1}).Run(prob, v, start, 2.0, 0.08)
	par := New(Config{MaxIterations: 10, Epsilon: 1e-9, Workers: 7}).Run(prob, v, start, 2.0, 0.08)

	assert.Equal(t, seq.Window, par.Window)
	assert.InDelta(t, seq.Position.X, par.Position.X, 1e-9)
	assert.InDelta(t, seq.Position.Y, par.Position.Y, 1e-9)
	assert.InDelta(t, seq.Depth, par.Depth, 1e-9)
}

func TestRun_ZeroWeightLeavesWindow(t *testing.T) {
	v := testutil.NewView(t, flatScene(1500))
	prob := &appearance.ProbMap{Width: 320, Height: 240, Data: make([]float32, 320*240)}
	start := image.Rect(100, 100, 130, 130)

	res := New(DefaultConfig()).Run(prob, v, start, 1.5, 0.05)

	assert.Equal(t, start, res.Window)
	assert.False(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
	assert.InDelta(t, 1.5, res.Depth, 1e-9)
}

func TestRun_WindowPartlyOutsideFrame(t *testing.T) {
	v := testutil.NewView(t, flatScene(1500))
	prob := gaussianPeak(testutil.MediumSize, 5, 5, 3)
	start := image.Rect(-10, -10, 20, 20)

	res := New(Config{MaxIterations: 30, Epsilon: 1e-6, Workers: 2}).Run(prob, v, start, 1.5, 0.05)

	cx, cy := geom.Center(res.Window)
	assert.InDelta(t, 5, cx, 2)
	assert.InDelta(t, 5, cy, 2)
}

func TestRun_NonPositiveBandwidth(t *testing.T) {
	v := testutil.NewView(t, flatScene(1500))
	prob := gaussianPeak(testutil.MediumSize, 150, 110, 3)
	start := image.Rect(100, 100, 130, 130)

	res := New(DefaultConfig()).Run(prob, v, start, 1.5, 0)
	assert.Equal(t, start, res.Window)
	assert.Equal(t, 0, res.Iterations)
}

func BenchmarkRun(b *testing.B) {
	v := testutil.NewView(b, flatScene(1500))
	prob := gaussianPeak(testutil.MediumSize, 150, 110, 10)
	tr := New(DefaultConfig())
	start := geom.CenteredAt(160, 120, image.Pt(80, 80))

	for b.Loop() {
		tr.Run(prob, v, start, 1.5, 0.05)
	}
}
