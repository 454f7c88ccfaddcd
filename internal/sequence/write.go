package sequence

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/disintegration/imaging"
	"github.com/golang/geo/r3"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v3"
)

// Frame is one recorded frame pair.
type Frame struct {
	Color     image.Image
	Depth     *camera.DepthMap
	Predicted *r3.Vector
}

// Write stores frames under dir as PNG colour images and 16-bit TIFF depth
// images and writes m, with its frame list replaced, to dir/sequence.yaml.
// It returns the manifest path.
func Write(dir string, m Manifest, frames []Frame) (string, error) {
	if len(frames) == 0 {
		return "", ErrNoFrames
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create sequence directory: %w", err)
	}

	m.Frames = make([]FrameSpec, len(frames))
	for i, f := range frames {
		spec := FrameSpec{
			Color: fmt.Sprintf("color_%04d.png", i),
			Depth: fmt.Sprintf("depth_%04d.tiff", i),
		}
		if f.Predicted != nil {
			spec.Predicted = []float64{f.Predicted.X, f.Predicted.Y, f.Predicted.Z}
		}
		if err := imaging.Save(f.Color, filepath.Join(dir, spec.Color)); err != nil {
			return "", fmt.Errorf("frame %d: failed to save color image: %w", i, err)
		}
		if err := saveDepth(filepath.Join(dir, spec.Depth), f.Depth); err != nil {
			return "", fmt.Errorf("frame %d: %w", i, err)
		}
		m.Frames[i] = spec
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	path := filepath.Join(dir, "sequence.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

func saveDepth(path string, d *camera.DepthMap) error {
	img := image.NewGray16(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			v := math.Round(float64(d.At(x, y)))
			img.SetGray16(x, y, color.Gray16{Y: uint16(min(max(v, 0), math.MaxUint16))})
		}
	}

	f, err := os.Create(path) //nolint:gosec // G304: output path is built by Write
	if err != nil {
		return fmt.Errorf("failed to create depth image: %w", err)
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode depth image: %w", err)
	}
	return f.Close()
}
