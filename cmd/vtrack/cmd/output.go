package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/vtrack/internal/occlusion"
	"github.com/MeKo-Tech/vtrack/internal/tracker"
	"github.com/golang/geo/r3"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

// rect is a window in x,y,w,h form.
type rect [4]int

func toRect(r image.Rectangle) rect {
	return rect{r.Min.X, r.Min.Y, r.Dx(), r.Dy()}
}

// parseRect parses "x,y,w,h".
func parseRect(s string) (image.Rectangle, error) {
	var x, y, w, h int
	if _, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "%d,%d,%d,%d", &x, &y, &w, &h); err != nil {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q (want x,y,w,h): %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q: width and height must be positive", s)
	}
	return image.Rect(x, y, x+w, y+h), nil
}

type vec [3]float64

func toVec(v r3.Vector) vec { return vec{v.X, v.Y, v.Z} }

// modelOutput describes the target model learned on the first frame.
type modelOutput struct {
	Window    rect    `json:"window"`
	Depth     float64 `json:"depth"`
	ZRange    float64 `json:"z_range"`
	Bandwidth float64 `json:"bandwidth"`
}

// objectOutput is the serialised form of a detected object.
type objectOutput struct {
	ID       int32   `json:"id"`
	Type     string  `json:"type"`
	Bounds   rect    `json:"bounds"`
	Area     int     `json:"area"`
	Min      float64 `json:"min"`
	Median   float64 `json:"median"`
	Max      float64 `json:"max"`
	Position vec     `json:"position"`
}

func toObjects(objs []*occlusion.DetectedObject) []objectOutput {
	out := make([]objectOutput, 0, len(objs))
	for _, o := range objs {
		out = append(out, objectOutput{
			ID:       o.Region.ID,
			Type:     o.Type.String(),
			Bounds:   toRect(o.Bounds),
			Area:     o.Region.Area,
			Min:      o.Min,
			Median:   o.Median,
			Max:      o.Max,
			Position: toVec(o.Position),
		})
	}
	return out
}

// frameOutput is the per-frame tracking result.
type frameOutput struct {
	Frame      int            `json:"frame"`
	State      string         `json:"state"`
	Window     rect           `json:"window"`
	Depth      float64        `json:"depth"`
	Weight     float64        `json:"weight"`
	Iterations int            `json:"iterations"`
	Converged  bool           `json:"converged"`
	Predicted  vec            `json:"predicted"`
	Predictor  string         `json:"predictor"`
	Matches    int            `json:"matches"`
	DurationMS float64        `json:"duration_ms"`
	Objects    []objectOutput `json:"objects"`
}

func newFrameOutput(index int, r tracker.FrameResult, predicted r3.Vector, predictor string) frameOutput {
	return frameOutput{
		Frame:      index,
		State:      r.State(),
		Window:     toRect(r.Window),
		Depth:      r.Depth,
		Weight:     r.Weight,
		Iterations: r.Iterations,
		Converged:  r.Converged,
		Predicted:  toVec(predicted),
		Predictor:  predictor,
		Matches:    len(r.Matches),
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
		Objects:    toObjects(r.Objects),
	}
}

// trackReport is the complete output of the track command.
type trackReport struct {
	Sequence string        `json:"sequence"`
	Frames   int           `json:"frames"`
	Occluded int           `json:"occluded_frames"`
	Model    modelOutput   `json:"model"`
	Results  []frameOutput `json:"results"`
}

// segmentReport is the output of the segment command.
type segmentReport struct {
	Sequence string         `json:"sequence"`
	Frame    int            `json:"frame"`
	Region   rect           `json:"region"`
	Labels   int            `json:"labels"`
	Objects  []objectOutput `json:"objects"`
}

// openOutput returns the destination for results; stdout when path is empty.
func openOutput(w io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return w, func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // G304: output path is user-provided
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrackText(w io.Writer, r *trackReport) error {
	m := r.Model
	if _, err := fmt.Fprintf(w, "model: window=%v depth=%.3f z_range=%.3f bandwidth=%.4f\n",
		m.Window, m.Depth, m.ZRange, m.Bandwidth); err != nil {
		return err
	}
	for _, f := range r.Results {
		if _, err := fmt.Fprintf(w, "frame %d: %s window=%v depth=%.3f weight=%.0f iterations=%d objects=%d\n",
			f.Frame, f.State, f.Window, f.Depth, f.Weight, f.Iterations, len(f.Objects)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "tracked %d frames, %d occluded\n", r.Frames, r.Occluded)
	return err
}

func writeSegmentText(w io.Writer, r *segmentReport) error {
	if _, err := fmt.Fprintf(w, "frame %d region=%v labels=%d objects=%d\n",
		r.Frame, r.Region, r.Labels, len(r.Objects)); err != nil {
		return err
	}
	for _, o := range r.Objects {
		if _, err := fmt.Fprintf(w, "  object %d: bounds=%v area=%d min=%.3f median=%.3f max=%.3f\n",
			o.ID, o.Bounds, o.Area, o.Min, o.Median, o.Max); err != nil {
			return err
		}
	}
	return nil
}
