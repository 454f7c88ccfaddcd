// Package occlusion classifies the regions segmented around the tracked
// target, carries their types across frames by matching, and decides whether
// the target is hidden behind an occluder.
package occlusion

import (
	"image"

	"github.com/golang/geo/r3"
)

// ObjectType is the role a segmented region plays relative to the target.
type ObjectType int

const (
	Unknown ObjectType = iota
	Target
	Occluder
	Background
)

func (t ObjectType) String() string {
	switch t {
	case Unknown:
		return "unknown"
	case Target:
		return "target"
	case Occluder:
		return "occluder"
	case Background:
		return "background"
	}
	return "invalid"
}

// MarshalText encodes the type by name.
func (t ObjectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Region identifies the pixels of one object as a label id inside a label
// image shared by all objects of the same frame. The label image must not be
// modified once objects referencing it are published.
type Region struct {
	Labels []int32
	Stride int
	Origin image.Point // frame coordinates of the label image's (0,0)
	Bounds image.Rectangle
	ID     int32
	Area   int
}

// Contains reports whether frame pixel (x, y) belongs to the region.
func (r Region) Contains(x, y int) bool {
	if !image.Pt(x, y).In(r.Bounds) {
		return false
	}
	lx, ly := x-r.Origin.X, y-r.Origin.Y
	return r.Labels[ly*r.Stride+lx] == r.ID
}

// Intersection counts the frame pixels belonging to both regions.
func (r Region) Intersection(o Region) int {
	common := r.Bounds.Intersect(o.Bounds)
	n := 0
	for y := common.Min.Y; y < common.Max.Y; y++ {
		for x := common.Min.X; x < common.Max.X; x++ {
			if r.Contains(x, y) && o.Contains(x, y) {
				n++
			}
		}
	}
	return n
}

// DetectedObject is one segmented region with its depth statistics.
type DetectedObject struct {
	Type     ObjectType
	Min      float64 // low-percentile depth
	Max      float64 // high-percentile depth
	Median   float64
	Position r3.Vector // world position of the region centroid at median depth
	Bounds   image.Rectangle
	Region   Region
}

// ContainsDepth reports whether z lies strictly inside the object's depth extent.
func (o *DetectedObject) ContainsDepth(z float64) bool {
	return o.Min < z && z < o.Max
}
