// Package synth writes synthetic RGB-D sequences for tests and demos.
package synth

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/vtrack/internal/appearance"
	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/MeKo-Tech/vtrack/internal/sequence"
	"github.com/MeKo-Tech/vtrack/internal/testutil"
	"github.com/disintegration/imaging"
	"github.com/golang/geo/r3"
)

// Camera intrinsics of every synthetic sequence.
const (
	Focal = 525.0
	Near  = 1480 // raw depth of the target's left half
	Far   = 1520 // raw depth of the target's right half
)

// InitialWindow is the tracking window of frame 0.
var InitialWindow = image.Rect(50, 30, 110, 90)

// Options controls the generated sequence.
type Options struct {
	Frames int // number of frames, including the model frame
	Step   int // target motion to the right in pixels per frame
	// OccludeFrom is the first frame hidden behind an occluder; 0 disables it.
	OccludeFrom int
	// Predictions stores the true target position as the predicted position
	// of every frame after the first.
	Predictions bool
}

// TargetRect is the 30x30 target footprint shifted dx pixels right.
func TargetRect(dx int) image.Rectangle {
	return image.Rect(65+dx, 45, 95+dx, 75)
}

// Target renders a green target whose halves sit at Near and Far in front
// of a grey wall at 3 m.
func Target(dx int) testutil.Scene {
	r := TargetRect(dx)
	mid := r.Min.X + r.Dx()/2
	return testutil.Scene{
		Size:            testutil.SmallSize,
		Background:      testutil.Gray,
		BackgroundDepth: 3000,
		Blobs: []testutil.Blob{
			{Rect: image.Rect(r.Min.X, r.Min.Y, mid, r.Max.Y), Color: testutil.Green, Depth: Near},
			{Rect: image.Rect(mid, r.Min.Y, r.Max.X, r.Max.Y), Color: testutil.Green, Depth: Far},
		},
	}
}

// Occlude adds a 50x50 green surface at 0.8-0.9 m centred on the target at dx.
func Occlude(s testutil.Scene, dx int) testutil.Scene {
	s.Blobs = append(s.Blobs,
		testutil.Blob{Rect: image.Rect(55+dx, 35, 80+dx, 85), Color: testutil.Green, Depth: 800},
		testutil.Blob{Rect: image.Rect(80+dx, 35, 105+dx, 85), Color: testutil.Green, Depth: 900},
	)
	return s
}

// Manifest returns the camera and initial window of a synthetic sequence.
func Manifest() sequence.Manifest {
	size := testutil.SmallSize
	return sequence.Manifest{
		Camera: sequence.CameraSpec{
			Fx:         Focal,
			Fy:         Focal,
			Cx:         float64(size.X) / 2,
			Cy:         float64(size.Y) / 2,
			DepthScale: testutil.DepthScale,
			Mode:       string(camera.ModeDepth),
		},
		Init: sequence.InitSpec{
			Window: [4]int{InitialWindow.Min.X, InitialWindow.Min.Y, InitialWindow.Dx(), InitialWindow.Dy()},
			Mask:   "mask.png",
		},
	}
}

// Position is the world position of the target centre at dx.
func Position(dx int) r3.Vector {
	size := testutil.SmallSize
	cx, cy := TargetRect(dx).Min.X+15, TargetRect(dx).Min.Y+15
	z := float64(Near+Far) / 2 * testutil.DepthScale
	return r3.Vector{
		X: (float64(cx) - float64(size.X)/2) * z / Focal,
		Y: (float64(cy) - float64(size.Y)/2) * z / Focal,
		Z: z,
	}
}

// Write renders the sequence described by opts into dir and returns the
// manifest path.
func Write(dir string, opts Options) (string, error) {
	if opts.Frames < 1 {
		return "", sequence.ErrNoFrames
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create sequence directory: %w", err)
	}

	mask := appearance.MaskFromRect(testutil.SmallSize, TargetRect(0))
	if err := imaging.Save(mask, filepath.Join(dir, "mask.png")); err != nil {
		return "", fmt.Errorf("failed to save mask: %w", err)
	}

	frames := make([]sequence.Frame, opts.Frames)
	for i := range frames {
		dx := i * opts.Step
		scene := Target(dx)
		if opts.OccludeFrom > 0 && i >= opts.OccludeFrom {
			scene = Occlude(scene, dx)
		}
		img, depth := scene.Render()
		frames[i] = sequence.Frame{Color: img, Depth: depth}
		if opts.Predictions && i > 0 {
			p := Position(dx)
			frames[i].Predicted = &p
		}
	}
	return sequence.Write(dir, Manifest(), frames)
}
