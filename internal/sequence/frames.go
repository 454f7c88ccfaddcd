package sequence

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"

	"github.com/MeKo-Tech/vtrack/internal/appearance"
	"github.com/MeKo-Tech/vtrack/internal/camera"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Frame loads the colour and depth images of frame i.
func (m *Manifest) Frame(i int) (image.Image, *camera.DepthMap, error) {
	if i < 0 || i >= len(m.Frames) {
		return nil, nil, fmt.Errorf("frame %d out of range [0,%d)", i, len(m.Frames))
	}
	f := m.Frames[i]

	img, err := imaging.Open(m.resolve(f.Color))
	if err != nil {
		return nil, nil, fmt.Errorf("frame %d: failed to open color image: %w", i, err)
	}
	depth, err := loadDepth(m.resolve(f.Depth))
	if err != nil {
		return nil, nil, fmt.Errorf("frame %d: %w", i, err)
	}
	if img.Bounds().Dx() != depth.Width || img.Bounds().Dy() != depth.Height {
		return nil, nil, fmt.Errorf("frame %d: %w", i, camera.ErrFrameSizeMismatch)
	}
	return img, depth, nil
}

// loadDepth decodes a 16-bit (or 8-bit) PNG, TIFF or BMP depth image
// without any colour conversion.
func loadDepth(path string) (*camera.DepthMap, error) {
	f, err := os.Open(path) //nolint:gosec // G304: frame paths come from the manifest
	if err != nil {
		return nil, fmt.Errorf("failed to open depth image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode depth image %s: %w", path, err)
	}
	return camera.FromImage(img), nil
}

// Mask returns the initial target mask: the manifest's mask image when set
// (any non-black pixel selects), otherwise the initial window.
func (m *Manifest) Mask(size image.Point) (*image.Gray, error) {
	if m.Init.Mask == "" {
		return appearance.MaskFromRect(size, m.Window()), nil
	}
	img, err := imaging.Open(m.resolve(m.Init.Mask))
	if err != nil {
		return nil, fmt.Errorf("failed to open mask: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != size.X || b.Dy() != size.Y {
		return nil, fmt.Errorf("mask size %dx%d does not match frame %dx%d", b.Dx(), b.Dy(), size.X, size.Y)
	}
	mask := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y != 0 {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return mask, nil
}
