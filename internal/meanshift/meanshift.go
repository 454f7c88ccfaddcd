// Package meanshift refines a tracking window with a depth-weighted 3D
// mean-shift over a backprojected probability map.
package meanshift

import (
	"image"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/vtrack/internal/appearance"
	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/MeKo-Tech/vtrack/internal/geom"
	"github.com/golang/geo/r3"
)

// Config holds mean-shift settings.
type Config struct {
	MaxIterations int     // iteration bound
	Epsilon       float64 // convergence threshold on the camera-space shift
	Workers       int     // goroutines for the per-iteration reduction (0 = runtime.NumCPU())
}

// DefaultConfig returns the default mean-shift configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 10,
		Epsilon:       1e-6,
		Workers:       runtime.NumCPU(),
	}
}

// Result is the outcome of one mean-shift run.
type Result struct {
	Window     image.Rectangle
	Depth      float64
	Position   r3.Vector // final camera-space position
	Iterations int
	Converged  bool
}

// Tracker runs mean-shift iterations. It holds no per-frame state and may be
// shared by sequential calls.
type Tracker struct {
	cfg Config
}

// New creates a tracker with the given configuration.
func New(cfg Config) *Tracker {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	return &Tracker{cfg: cfg}
}

// sums is the partial reduction of one band of rows.
type sums struct {
	w, x, y, z float64
}

func (s *sums) add(o sums) {
	s.w += o.w
	s.x += o.x
	s.y += o.y
	s.z += o.z
}

// Run shifts window (at depth) towards the nearest mode of the probability
// map weighted by a Gaussian kernel of bandwidth h in camera space.
func (t *Tracker) Run(prob *appearance.ProbMap, v camera.View, window image.Rectangle, depth, h float64) Result {
	cx, cy := geom.Center(window)
	pos := v.PixelToCamera(float64(cx), float64(cy), depth)
	res := Result{Window: window, Depth: pos.Z, Position: pos}
	if h <= 0 {
		slog.Warn("mean-shift skipped: non-positive bandwidth", "bandwidth", h)
		return res
	}

	bounds := image.Rect(0, 0, prob.Width, prob.Height)
	size := window.Size()

	for res.Iterations < t.cfg.MaxIterations {
		res.Iterations++

		extent := res.Window.Intersect(bounds)
		total := t.accumulate(prob, v, extent, pos, h)
		if total.w == 0 {
			// No probable pixel near the current position: nothing to shift towards.
			slog.Debug("mean-shift zero weight", "iteration", res.Iterations, "window", res.Window)
			break
		}

		next := r3.Vector{X: total.x / total.w, Y: total.y / total.w, Z: total.z / total.w}
		shift := geom.Distance(pos, next)
		pos = next

		px, py := v.CameraToPixel(pos)
		res.Window = geom.CenteredAt(px, py, size)
		res.Position = pos
		res.Depth = pos.Z

		if shift < t.cfg.Epsilon {
			res.Converged = true
			break
		}
	}
	return res
}

// accumulate reduces weight and weighted camera-space coordinates over the
// pixels of extent. Rows are split into contiguous bands, one per worker, and
// the band sums are combined in band order.
func (t *Tracker) accumulate(prob *appearance.ProbMap, v camera.View, extent image.Rectangle, pos r3.Vector, h float64) sums {
	rows := extent.Dy()
	if rows <= 0 || extent.Dx() <= 0 {
		return sums{}
	}

	workers := min(t.cfg.Workers, rows)
	if workers <= 1 {
		return accumulateRows(prob, v, extent, pos, h)
	}

	partial := make([]sums, workers)
	band := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	for i := range workers {
		y0 := extent.Min.Y + i*band
		y1 := min(y0+band, extent.Max.Y)
		if y0 >= y1 {
			continue
		}
		wg.Add(1)
		go func(i int, r image.Rectangle) {
			defer wg.Done()
			partial[i] = accumulateRows(prob, v, r, pos, h)
		}(i, image.Rect(extent.Min.X, y0, extent.Max.X, y1))
	}
	wg.Wait()

	var total sums
	for _, p := range partial {
		total.add(p)
	}
	return total
}

func accumulateRows(prob *appearance.ProbMap, v camera.View, r image.Rectangle, pos r3.Vector, h float64) sums {
	depth := v.Depth()
	inv := 1 / h
	var total sums
	for y := r.Min.Y; y < r.Max.Y; y++ {
		var row sums
		for x := r.Min.X; x < r.Max.X; x++ {
			p := float64(prob.At(x, y))
			if p == 0 {
				continue
			}
			z := v.DisparityToDepth(float64(depth.At(x, y)))
			pt := v.PixelToCamera(float64(x), float64(y), z)

			d := geom.Distance(pos, pt) * inv
			w := math.Exp(-0.5*d*d) * p

			row.w += w
			row.x += pt.X * w
			row.y += pt.Y * w
			row.z += pt.Z * w
		}
		total.add(row)
	}
	return total
}
