package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vtrack_frames_total",
			Help: "Total number of tracked frames",
		},
		[]string{"state"}, // state: tracking, occluded
	)

	meanShiftIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vtrack_meanshift_iterations",
			Help:    "Mean-shift iterations per frame",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
		},
	)

	objectsDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vtrack_objects_detected",
			Help:    "Number of regions segmented around the target per frame",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	trackDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vtrack_track_duration_seconds",
			Help:    "Per-frame tracking duration in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

func recordFrame(r FrameResult) {
	framesTotal.WithLabelValues(r.State()).Inc()
	meanShiftIterations.Observe(float64(r.Iterations))
	objectsDetected.Observe(float64(len(r.Objects)))
	trackDuration.Observe(r.Duration.Seconds())
}
