package tracker

import (
	"image"
	"time"

	"github.com/MeKo-Tech/vtrack/internal/occlusion"
)

// State names reported for a frame.
const (
	StateTracking = "tracking"
	StateOccluded = "occluded"
)

// FrameResult records the outcome of one Track call.
type FrameResult struct {
	Frame      int                         `json:"frame"`
	Window     image.Rectangle             `json:"window"`
	Depth      float64                     `json:"depth"`
	Weight     float64                     `json:"weight"`
	Occluded   bool                        `json:"occluded"`
	Iterations int                         `json:"iterations"`
	Converged  bool                        `json:"converged"`
	Objects    []*occlusion.DetectedObject `json:"-"`
	Matches    []occlusion.Pair            `json:"-"`
	Resolution occlusion.Resolution        `json:"-"`
	Duration   time.Duration               `json:"duration_ns"`
}

// State returns StateOccluded or StateTracking.
func (r FrameResult) State() string {
	if r.Occluded {
		return StateOccluded
	}
	return StateTracking
}
