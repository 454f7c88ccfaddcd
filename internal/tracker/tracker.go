// Package tracker drives single-target RGB-D tracking frame by frame:
// appearance backprojection, 3D mean-shift refinement, depth segmentation of
// the neighbourhood and occlusion reasoning with fallback to a predicted
// position.
package tracker

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/vtrack/internal/appearance"
	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/MeKo-Tech/vtrack/internal/geom"
	"github.com/MeKo-Tech/vtrack/internal/meanshift"
	"github.com/MeKo-Tech/vtrack/internal/occlusion"
	"github.com/MeKo-Tech/vtrack/internal/segment"
	"github.com/golang/geo/r3"
)

var (
	// ErrNotBuilt is returned by Track before a successful Build.
	ErrNotBuilt = errors.New("tracker model not built")
	// ErrEmptyWindow is returned for a zero-size tracking window.
	ErrEmptyWindow = errors.New("tracking window is empty")
)

// Config aggregates the settings of every tracking stage.
type Config struct {
	MeanShift meanshift.Config
	Depth     appearance.Config
	Segment   segment.Config
	Match     occlusion.MatchConfig
	// Bandwidth overrides the estimated kernel bandwidth when positive.
	Bandwidth float64
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		MeanShift: meanshift.DefaultConfig(),
		Depth:     appearance.DefaultConfig(),
		Segment:   segment.DefaultConfig(),
		Match:     occlusion.DefaultMatchConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MeanShift.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MeanShift.MaxIterations)
	}
	if c.MeanShift.Epsilon < 0 {
		return fmt.Errorf("epsilon must be non-negative, got %g", c.MeanShift.Epsilon)
	}
	if c.Bandwidth < 0 {
		return fmt.Errorf("bandwidth must be non-negative, got %g", c.Bandwidth)
	}
	if c.Depth.LowPercentile < 0 || c.Depth.HighPercentile > 1 || c.Depth.LowPercentile > c.Depth.HighPercentile {
		return fmt.Errorf("invalid z-range percentiles %g/%g", c.Depth.LowPercentile, c.Depth.HighPercentile)
	}
	if err := c.Segment.Validate(); err != nil {
		return fmt.Errorf("segment: %w", err)
	}
	if err := c.Match.Validate(); err != nil {
		return fmt.Errorf("matcher: %w", err)
	}
	return nil
}

// Tracker follows one target through the frames supplied by its view.
// It is not safe for concurrent use.
type Tracker struct {
	view camera.View
	cfg  Config
	ms   *meanshift.Tracker
	seg  *segment.Segmenter

	model   *appearance.Model
	window  image.Rectangle
	depth   float64
	zRange  float64
	h       float64
	objects []*occlusion.DetectedObject

	frame int
	last  FrameResult
}

// New creates a tracker for the target initially inside window. Build must be
// called with the target mask before tracking.
func New(view camera.View, window image.Rectangle, cfg Config) (*Tracker, error) {
	if view == nil {
		return nil, camera.ErrEmptyFrame
	}
	if window.Empty() {
		return nil, ErrEmptyWindow
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker config: %w", err)
	}
	return &Tracker{
		view:   view,
		cfg:    cfg,
		ms:     meanshift.New(cfg.MeanShift),
		seg:    segment.New(cfg.Segment),
		window: window,
	}, nil
}

// Build learns the appearance and depth models from the pixels of the
// current frames selected by mask. It resets the tracked object list.
func (t *Tracker) Build(mask *image.Gray) error {
	if err := camera.CheckFrames(t.view); err != nil {
		return err
	}
	size := t.view.Depth().Size()
	window := geom.ClampRegion(t.window, size)
	if window.Empty() {
		return fmt.Errorf("%w: %v outside frame %v", ErrEmptyWindow, t.window, size)
	}

	model, err := appearance.NewModel(t.view.Color(), mask)
	if err != nil {
		return fmt.Errorf("failed to build appearance model: %w", err)
	}
	est, err := appearance.EstimateDepth(t.view, mask, window, t.cfg.Depth)
	if err != nil {
		return fmt.Errorf("failed to estimate depth: %w", err)
	}

	t.model = model
	t.window = window
	t.depth = est.Z
	t.zRange = est.ZRange
	t.objects = nil
	if t.cfg.Bandwidth > 0 {
		t.h = t.cfg.Bandwidth
	} else {
		t.h = appearance.EstimateBandwidth(window, est.Z, est.ZRange, t.view.InvIntrinsic())
	}

	slog.Info("Tracker model built",
		"window", window.String(),
		"depth", t.depth,
		"z_range", t.zRange,
		"bandwidth", t.h)
	return nil
}

// SetBandwidth overrides the mean-shift kernel bandwidth.
func (t *Tracker) SetBandwidth(h float64) {
	t.h = h
}

// Track processes the view's current frames given the externally predicted
// world position of the target. It returns the coverage weight of the
// window, or zero when the target is judged occluded, in which case the
// window is re-centred on the projected prediction.
func (t *Tracker) Track(predicted r3.Vector) (float64, error) {
	if t.model == nil {
		return 0, ErrNotBuilt
	}
	if err := camera.CheckFrames(t.view); err != nil {
		return 0, err
	}
	start := time.Now()
	t.frame++
	size := t.view.Depth().Size()

	prob := t.model.Backproject(t.view.Color())
	weight := t.coverage(size)

	ms := t.ms.Run(prob, t.view, t.window, t.depth, t.h)

	_, _, pz := t.view.WorldToPixel(predicted)
	region := geom.ShiftInside(ms.Window, size)
	objs, _, err := t.seg.Detect(t.view, region)
	if err != nil {
		return 0, fmt.Errorf("failed to segment %v: %w", region, err)
	}
	matches := occlusion.Match(t.objects, objs, t.cfg.Match)
	occlusion.Classify(objs, pz, t.depth, t.zRange)
	res := occlusion.Resolve(objs, ms.Depth, t.zRange)
	t.objects = objs

	if res.Occluded {
		px, py, z := t.view.WorldToPixel(predicted)
		t.window = geom.ShiftInside(geom.CenteredAt(px, py, t.window.Size()), size)
		t.depth = z
		weight = 0
	} else {
		t.window = geom.ShiftInside(ms.Window, size)
		t.depth = res.Depth
	}

	t.last = FrameResult{
		Frame:      t.frame,
		Window:     t.window,
		Depth:      t.depth,
		Weight:     weight,
		Occluded:   res.Occluded,
		Iterations: ms.Iterations,
		Converged:  ms.Converged,
		Objects:    objs,
		Matches:    matches,
		Resolution: res,
		Duration:   time.Since(start),
	}
	recordFrame(t.last)

	slog.Debug("Tracked frame",
		"frame", t.frame,
		"state", t.last.State(),
		"window", t.window.String(),
		"depth", t.depth,
		"weight", weight,
		"iterations", ms.Iterations,
		"objects", len(objs))
	return weight, nil
}

// coverage counts the valid pixels of the doubled window no deeper than the
// target's far bound.
func (t *Tracker) coverage(size image.Point) float64 {
	r := geom.ClampRegion(geom.Enlarge(t.window, 2), size)
	limit := t.depth + t.zRange
	depth := t.view.Depth()
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			z := t.view.DisparityToDepth(float64(depth.At(x, y)))
			if z > 0 && z <= limit {
				n++
			}
		}
	}
	return float64(n)
}

// Window returns the current tracking window.
func (t *Tracker) Window() image.Rectangle { return t.window }

// Depth returns the current target depth.
func (t *Tracker) Depth() float64 { return t.depth }

// ZRange returns the target's depth half-width.
func (t *Tracker) ZRange() float64 { return t.zRange }

// Bandwidth returns the mean-shift kernel bandwidth.
func (t *Tracker) Bandwidth() float64 { return t.h }

// Objects returns the objects segmented in the last frame. The slice must
// not be modified.
func (t *Tracker) Objects() []*occlusion.DetectedObject { return t.objects }

// Last returns the result of the most recent Track call.
func (t *Tracker) Last() FrameResult { return t.last }
