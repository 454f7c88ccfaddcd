package occlusion

import (
	"fmt"
	"sort"
)

// OverlapMetric selects how region overlap is measured when gating matches.
type OverlapMetric string

const (
	// SizeRatio divides the previous region's pixel count by the new one's.
	SizeRatio OverlapMetric = "size_ratio"
	// IoU is intersection over union of the two regions in frame coordinates.
	IoU OverlapMetric = "iou"
)

// MatchConfig configures Match.
type MatchConfig struct {
	Metric    OverlapMetric
	Threshold float64 // pairs with overlap <= Threshold are never matched
}

// DefaultMatchConfig returns the matcher defaults.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{Metric: SizeRatio, Threshold: 0.5}
}

// Validate checks the metric name and threshold.
func (c MatchConfig) Validate() error {
	switch c.Metric {
	case SizeRatio, IoU:
	default:
		return fmt.Errorf("unknown overlap metric %q", c.Metric)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("overlap threshold must be non-negative, got %f", c.Threshold)
	}
	return nil
}

// Pair is one accepted correspondence between a previous-frame object and
// a current-frame object, by index.
type Pair struct {
	Prev     int
	Cur      int
	Distance float64
	Overlap  float64
}

// Match associates cur with prev greedily by ascending 3D distance among
// pairs passing the overlap gate, copying each matched previous type onto
// its new object. Every index appears in at most one returned pair.
func Match(prev, cur []*DetectedObject, cfg MatchConfig) []Pair {
	var candidates []Pair
	for ci, c := range cur {
		if c.Region.Area == 0 {
			continue
		}
		for pi, p := range prev {
			ov := overlap(p, c, cfg.Metric)
			if ov <= cfg.Threshold {
				continue
			}
			candidates = append(candidates, Pair{
				Prev:     pi,
				Cur:      ci,
				Distance: p.Position.Sub(c.Position).Norm(),
				Overlap:  ov,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	usedPrev := make(map[int]bool)
	usedCur := make(map[int]bool)
	var pairs []Pair
	for _, c := range candidates {
		if usedPrev[c.Prev] || usedCur[c.Cur] {
			continue
		}
		usedPrev[c.Prev] = true
		usedCur[c.Cur] = true
		cur[c.Cur].Type = prev[c.Prev].Type
		pairs = append(pairs, c)
	}
	return pairs
}

func overlap(p, c *DetectedObject, metric OverlapMetric) float64 {
	switch metric {
	case IoU:
		inter := p.Region.Intersection(c.Region)
		union := p.Region.Area + c.Region.Area - inter
		if union <= 0 {
			return 0
		}
		return float64(inter) / float64(union)
	default:
		return float64(p.Region.Area) / float64(c.Region.Area)
	}
}
