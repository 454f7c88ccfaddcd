// Package segment splits a depth neighbourhood of the tracked target into
// labelled regions with a depth-guided watershed and extracts per-region
// depth statistics.
package segment

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/MeKo-Tech/vtrack/internal/mempool"
	"github.com/MeKo-Tech/vtrack/internal/occlusion"
)

// ErrEmptyRegion is returned when the requested crop does not overlap the frame.
var ErrEmptyRegion = errors.New("segmentation region outside frame")

// Config holds the segmentation parameters.
type Config struct {
	Otsu                bool  // binarise with Otsu's threshold
	Threshold           uint8 // fixed threshold when Otsu is disabled
	OpenKernel          int   // structuring element size of the noise opening
	DilateIterations    int   // dilations producing the border candidate
	InteriorThreshold   uint8 // cut on the normalised distance transform
	IncludeBorderRegion bool  // extract the border label as an object

	MinPercentile    float64
	MedianPercentile float64
	MaxPercentile    float64
}

// DefaultConfig returns the default segmentation configuration.
func DefaultConfig() Config {
	return Config{
		Otsu:                true,
		Threshold:           128,
		OpenKernel:          3,
		DilateIterations:    5,
		InteriorThreshold:   180,
		IncludeBorderRegion: true,
		MinPercentile:       0.05,
		MedianPercentile:    0.5,
		MaxPercentile:       0.95,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.OpenKernel < 1 || c.OpenKernel%2 == 0 {
		return fmt.Errorf("open kernel must be a positive odd size, got %d", c.OpenKernel)
	}
	if c.DilateIterations < 1 {
		return fmt.Errorf("dilate iterations must be positive, got %d", c.DilateIterations)
	}
	for name, p := range map[string]float64{
		"min":    c.MinPercentile,
		"median": c.MedianPercentile,
		"max":    c.MaxPercentile,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s percentile must be in [0,1], got %f", name, p)
		}
	}
	if c.MinPercentile > c.MedianPercentile || c.MedianPercentile > c.MaxPercentile {
		return errors.New("percentiles must satisfy min <= median <= max")
	}
	return nil
}

// Labels is the watershed result for one crop. Label 0 is unassigned, -1
// marks watershed lines between basins, 1..Count-2 are object basins and
// Count-1 is the border basin.
type Labels struct {
	Width  int
	Height int
	Origin image.Point // frame coordinates of the crop's top-left pixel
	Data   []int32
	Count  int
}

// At returns the label of crop pixel (x, y).
func (l *Labels) At(x, y int) int32 {
	return l.Data[y*l.Width+x]
}

// Border returns the label reserved for inter-object borders.
func (l *Labels) Border() int32 {
	return int32(l.Count - 1)
}

// Segmenter runs the depth-guided watershed.
type Segmenter struct {
	cfg Config
}

// New creates a segmenter.
func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Config returns the segmenter's configuration.
func (s *Segmenter) Config() Config { return s.cfg }

// Segment labels the crop. The result does not share memory with c.
func (s *Segmenter) Segment(c *Crop) *Labels {
	w, h := c.Rect.Dx(), c.Rect.Dy()
	n := w * h

	bin := mempool.GetUint8(n)
	defer mempool.PutUint8(bin)
	t := s.cfg.Threshold
	if s.cfg.Otsu {
		t = otsu(c.Gray)
	}
	binarize(bin, c.Gray, t)

	tmp := mempool.GetUint8(n)
	defer mempool.PutUint8(tmp)
	opened := mempool.GetUint8(n)
	defer mempool.PutUint8(opened)
	erode(tmp, bin, w, h, s.cfg.OpenKernel)
	dilate(opened, tmp, w, h, s.cfg.OpenKernel)

	border := mempool.GetUint8(n)
	defer mempool.PutUint8(border)
	copy(border, opened)
	for range s.cfg.DilateIterations {
		dilate(tmp, border, w, h, 3)
		copy(border, tmp)
	}
	erode(tmp, opened, w, h, 3)
	for i := range border {
		if tmp[i] != 0 {
			border[i] = 0
		}
	}

	dist := mempool.GetFloat32(n)
	defer mempool.PutFloat32(dist)
	distanceTransform(dist, opened, w, h)
	interior := tmp
	normalizeThreshold(interior, dist, s.cfg.InteriorThreshold)

	labels, k := connectedComponents(interior, w, h)
	borderLabel := int32(k + 1)
	for i, b := range border {
		if b != 0 {
			labels[i] = borderLabel
		}
	}

	watershed(labels, c.Color, w, h)

	return &Labels{
		Width:  w,
		Height: h,
		Origin: c.Rect.Min,
		Data:   labels,
		Count:  k + 2,
	}
}

// Detect crops r from the view, segments it and extracts its objects.
func (s *Segmenter) Detect(v camera.View, r image.Rectangle) ([]*occlusion.DetectedObject, *Labels, error) {
	c, err := NewCrop(v, r)
	if err != nil {
		return nil, nil, err
	}
	labels := s.Segment(c)
	objs := s.Extract(v, c, labels)
	if len(objs) == 0 {
		slog.Warn("Segmentation found no objects", "region", c.Rect.String(), "labels", labels.Count)
	} else {
		slog.Debug("Segmented region", "region", c.Rect.String(), "labels", labels.Count, "objects", len(objs))
	}
	return objs, labels, nil
}
