package segment

import (
	"image"
	"slices"

	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/MeKo-Tech/vtrack/internal/occlusion"
	"gonum.org/v1/gonum/stat"
)

type regionStats struct {
	area       int
	sumX, sumY int
	bounds     image.Rectangle
	depths     []float64
}

// Extract builds one DetectedObject per non-empty label of l. Objects
// without any valid depth sample are skipped. The returned objects share
// l.Data as their region label image.
func (s *Segmenter) Extract(v camera.View, c *Crop, l *Labels) []*occlusion.DetectedObject {
	last := int32(l.Count - 1)
	if !s.cfg.IncludeBorderRegion {
		last--
	}
	if last < 1 {
		return nil
	}

	stats := make([]regionStats, last+1)
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			id := l.At(x, y)
			if id < 1 || id > last {
				continue
			}
			st := &stats[id]
			px := image.Rect(x, y, x+1, y+1)
			if st.area == 0 {
				st.bounds = px
			} else {
				st.bounds = st.bounds.Union(px)
			}
			st.area++
			st.sumX += x
			st.sumY += y
			if z := c.Depth[y*l.Width+x]; z > 0 {
				st.depths = append(st.depths, z)
			}
		}
	}

	var objs []*occlusion.DetectedObject
	for id := int32(1); id <= last; id++ {
		st := &stats[id]
		if st.area == 0 || len(st.depths) == 0 {
			continue
		}
		slices.Sort(st.depths)
		median := stat.Quantile(s.cfg.MedianPercentile, stat.Empirical, st.depths, nil)

		cx := float64(l.Origin.X) + float64(st.sumX)/float64(st.area)
		cy := float64(l.Origin.Y) + float64(st.sumY)/float64(st.area)
		bounds := st.bounds.Add(l.Origin)

		objs = append(objs, &occlusion.DetectedObject{
			Type:     occlusion.Unknown,
			Min:      stat.Quantile(s.cfg.MinPercentile, stat.Empirical, st.depths, nil),
			Max:      stat.Quantile(s.cfg.MaxPercentile, stat.Empirical, st.depths, nil),
			Median:   median,
			Position: v.PixelToWorld(cx, cy, median),
			Bounds:   bounds,
			Region: occlusion.Region{
				Labels: l.Data,
				Stride: l.Width,
				Origin: l.Origin,
				Bounds: bounds,
				ID:     id,
				Area:   st.area,
			},
		})
	}
	return objs
}
