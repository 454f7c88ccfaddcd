// Package sequence reads and writes recorded RGB-D sequences: a YAML
// manifest describing the camera, the initial target and per-frame colour
// and depth image files.
package sequence

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"
)

// ErrNoFrames is returned for a manifest without frames.
var ErrNoFrames = errors.New("sequence has no frames")

// CameraSpec describes the calibrated camera of a sequence.
type CameraSpec struct {
	Fx         float64   `yaml:"fx"`
	Fy         float64   `yaml:"fy"`
	Cx         float64   `yaml:"cx"`
	Cy         float64   `yaml:"cy"`
	Baseline   float64   `yaml:"baseline,omitempty"`
	DepthScale float64   `yaml:"depth_scale,omitempty"`
	Mode       string    `yaml:"mode"`
	Extrinsic  []float64 `yaml:"extrinsic,omitempty"`
}

// InitSpec describes the target in the first frame.
type InitSpec struct {
	Window [4]int `yaml:"window"` // x, y, width, height
	Mask   string `yaml:"mask,omitempty"`
}

// FrameSpec lists the files of one frame.
type FrameSpec struct {
	Color     string    `yaml:"color"`
	Depth     string    `yaml:"depth"`
	Predicted []float64 `yaml:"predicted,omitempty"`
}

// Manifest is a parsed sequence description. Relative paths are resolved
// against the directory of the manifest file.
type Manifest struct {
	Camera CameraSpec  `yaml:"camera"`
	Init   InitSpec    `yaml:"init"`
	Frames []FrameSpec `yaml:"frames"`

	dir string
}

// Load parses and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: manifest path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the manifest for structural errors.
func (m *Manifest) Validate() error {
	if len(m.Frames) == 0 {
		return ErrNoFrames
	}
	switch camera.DepthMode(m.Camera.Mode) {
	case camera.ModeDepth, camera.ModeDisparity:
	default:
		return fmt.Errorf("unknown camera mode %q", m.Camera.Mode)
	}
	if m.Camera.Fx <= 0 || m.Camera.Fy <= 0 {
		return fmt.Errorf("focal lengths must be positive, got %g/%g", m.Camera.Fx, m.Camera.Fy)
	}
	if w := m.Window(); w.Empty() {
		return fmt.Errorf("initial window %v is empty", w)
	}
	for i, f := range m.Frames {
		if f.Color == "" || f.Depth == "" {
			return fmt.Errorf("frame %d: color and depth paths are required", i)
		}
		if f.Predicted != nil && len(f.Predicted) != 3 {
			return fmt.Errorf("frame %d: predicted position needs 3 values, got %d", i, len(f.Predicted))
		}
	}
	return nil
}

// Pinhole builds the camera model of the sequence.
func (m *Manifest) Pinhole() (*camera.Pinhole, error) {
	c := m.Camera
	p, err := camera.NewPinhole(c.Fx, c.Fy, c.Cx, c.Cy, camera.DepthMode(c.Mode), c.Extrinsic)
	if err != nil {
		return nil, err
	}
	p.Baseline = c.Baseline
	if c.DepthScale > 0 {
		p.DepthScale = c.DepthScale
	}
	return p, nil
}

// Window returns the initial tracking window.
func (m *Manifest) Window() image.Rectangle {
	w := m.Init.Window
	return image.Rect(w[0], w[1], w[0]+w[2], w[1]+w[3])
}

// Len returns the number of frames.
func (m *Manifest) Len() int { return len(m.Frames) }

// Predicted returns the externally predicted world position of frame i.
func (m *Manifest) Predicted(i int) (r3.Vector, bool) {
	p := m.Frames[i].Predicted
	if len(p) != 3 {
		return r3.Vector{}, false
	}
	return r3.Vector{X: p[0], Y: p[1], Z: p[2]}, true
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}
