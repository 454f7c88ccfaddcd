// Package camera defines the geometry adapter the tracker consumes: access to
// the current colour and depth frames plus the pixel, camera and world
// coordinate conversions of a calibrated RGB-D or stereo camera.
package camera

import (
	"image"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// View supplies the current frame pair and the camera model used to interpret it.
type View interface {
	// Color returns the current colour frame.
	Color() image.Image
	// Depth returns the current raw depth or disparity frame.
	Depth() *DepthMap
	// DisparityToDepth converts a raw depth-frame value to metric depth.
	DisparityToDepth(v float64) float64
	// PixelToCamera back-projects pixel (x, y) at depth z into camera space.
	PixelToCamera(x, y, z float64) r3.Vector
	// CameraToPixel projects a camera-space point onto the image plane.
	CameraToPixel(p r3.Vector) (x, y float64)
	// PixelToWorld back-projects pixel (x, y) at depth z into world space.
	PixelToWorld(x, y, z float64) r3.Vector
	// WorldToPixel projects a world point, returning pixel coordinates and depth.
	WorldToPixel(p r3.Vector) (x, y, z float64)
	// InvIntrinsic returns the 3x3 inverse intrinsic matrix.
	InvIntrinsic() *mat.Dense
}

// CheckFrames verifies a view has both frames bound and that they agree in size.
func CheckFrames(v View) error {
	if v == nil || v.Color() == nil || v.Depth().Empty() {
		return ErrEmptyFrame
	}
	cb := v.Color().Bounds()
	if cb.Dx() != v.Depth().Width || cb.Dy() != v.Depth().Height {
		return ErrFrameSizeMismatch
	}
	return nil
}
