package camera

import (
	"errors"
	"fmt"
	"image"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrFrameSizeMismatch is returned when colour and depth frames differ in size.
var ErrFrameSizeMismatch = errors.New("camera: colour and depth frame sizes differ")

// DepthMode selects how raw depth-frame values are interpreted.
type DepthMode string

const (
	// ModeDisparity treats raw values as stereo disparities in pixels.
	ModeDisparity DepthMode = "disparity"
	// ModeDepth treats raw values as depths scaled by DepthScale.
	ModeDepth DepthMode = "depth"
)

// Pinhole is a pinhole camera with an optional stereo baseline and a
// camera-to-world extrinsic transform.
type Pinhole struct {
	Fx, Fy     float64
	Cx, Cy     float64
	Baseline   float64 // stereo baseline, used in disparity mode
	DepthScale float64 // raw-to-metric scale, used in depth mode
	Mode       DepthMode

	k        *mat.Dense
	kInv     *mat.Dense
	inv      [9]float64
	camToW   *mat.Dense
	worldToC *mat.Dense
}

// NewPinhole builds a camera model. extrinsic is the row-major 4x4
// camera-to-world transform; nil means the world frame is the camera frame.
func NewPinhole(fx, fy, cx, cy float64, mode DepthMode, extrinsic []float64) (*Pinhole, error) {
	if fx == 0 || fy == 0 {
		return nil, fmt.Errorf("invalid focal length fx=%g fy=%g", fx, fy)
	}
	p := &Pinhole{Fx: fx, Fy: fy, Cx: cx, Cy: cy, Mode: mode, DepthScale: 1}
	if p.Mode == "" {
		p.Mode = ModeDepth
	}

	p.k = mat.NewDense(3, 3, []float64{
		fx, 0, cx,
		0, fy, cy,
		0, 0, 1,
	})
	p.kInv = mat.NewDense(3, 3, nil)
	if err := p.kInv.Inverse(p.k); err != nil {
		return nil, fmt.Errorf("invert intrinsic matrix: %w", err)
	}
	copy(p.inv[:], p.kInv.RawMatrix().Data)

	if extrinsic == nil {
		p.camToW = identity4()
	} else {
		if len(extrinsic) != 16 {
			return nil, fmt.Errorf("extrinsic must have 16 values, got %d", len(extrinsic))
		}
		p.camToW = mat.NewDense(4, 4, append([]float64(nil), extrinsic...))
	}
	p.worldToC = mat.NewDense(4, 4, nil)
	if err := p.worldToC.Inverse(p.camToW); err != nil {
		return nil, fmt.Errorf("invert extrinsic matrix: %w", err)
	}
	return p, nil
}

func identity4() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// DisparityToDepth converts a raw value to metric depth. Non-positive
// disparities carry no depth information and map to 0.
func (p *Pinhole) DisparityToDepth(v float64) float64 {
	if p.Mode == ModeDisparity {
		if v <= 0 {
			return 0
		}
		return p.Fx * p.Baseline / v
	}
	return v * p.DepthScale
}

// DepthToDisparity is the inverse of DisparityToDepth.
func (p *Pinhole) DepthToDisparity(z float64) float64 {
	if p.Mode == ModeDisparity {
		if z <= 0 {
			return 0
		}
		return p.Fx * p.Baseline / z
	}
	if p.DepthScale == 0 {
		return 0
	}
	return z / p.DepthScale
}

// PixelToCamera computes K^-1 * [x*z, y*z, z].
func (p *Pinhole) PixelToCamera(x, y, z float64) r3.Vector {
	m := &p.inv
	hx, hy := x*z, y*z
	return r3.Vector{
		X: m[0]*hx + m[1]*hy + m[2]*z,
		Y: m[3]*hx + m[4]*hy + m[5]*z,
		Z: m[6]*hx + m[7]*hy + m[8]*z,
	}
}

// CameraToPixel projects a camera-space point with the intrinsic matrix.
func (p *Pinhole) CameraToPixel(c r3.Vector) (float64, float64) {
	if c.Z == 0 {
		return p.Cx, p.Cy
	}
	return p.Fx*c.X/c.Z + p.Cx, p.Fy*c.Y/c.Z + p.Cy
}

// PixelToWorld back-projects a pixel and applies the camera-to-world transform.
func (p *Pinhole) PixelToWorld(x, y, z float64) r3.Vector {
	return transform(p.camToW, p.PixelToCamera(x, y, z))
}

// WorldToPixel moves a world point into camera space and projects it. The
// returned depth is the camera-space z.
func (p *Pinhole) WorldToPixel(w r3.Vector) (float64, float64, float64) {
	c := transform(p.worldToC, w)
	x, y := p.CameraToPixel(c)
	return x, y, c.Z
}

// InvIntrinsic returns a copy of the inverse intrinsic matrix.
func (p *Pinhole) InvIntrinsic() *mat.Dense {
	return mat.DenseCopyOf(p.kInv)
}

func transform(m *mat.Dense, v r3.Vector) r3.Vector {
	in := mat.NewVecDense(4, []float64{v.X, v.Y, v.Z, 1})
	var out mat.VecDense
	out.MulVec(m, in)
	w := out.AtVec(3)
	if w == 0 {
		w = 1
	}
	return r3.Vector{X: out.AtVec(0) / w, Y: out.AtVec(1) / w, Z: out.AtVec(2) / w}
}

// FrameView binds a camera model to the current frame pair. Frames are
// swapped with SetFrame between tracking steps.
type FrameView struct {
	*Pinhole
	color image.Image
	depth *DepthMap
}

// NewFrameView creates a view with no frames bound.
func NewFrameView(p *Pinhole) *FrameView {
	return &FrameView{Pinhole: p}
}

// SetFrame binds the next colour/depth pair.
func (v *FrameView) SetFrame(color image.Image, depth *DepthMap) {
	v.color = color
	v.depth = depth
}

// Color returns the bound colour frame.
func (v *FrameView) Color() image.Image { return v.color }

// Depth returns the bound depth frame.
func (v *FrameView) Depth() *DepthMap { return v.depth }

var _ View = (*FrameView)(nil)
