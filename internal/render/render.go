// Package render draws tracking results and label images for inspection.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/MeKo-Tech/vtrack/internal/occlusion"
	"github.com/MeKo-Tech/vtrack/internal/segment"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Colours used for the tracking window and per object type.
var (
	TrackingColor = color.RGBA{G: 255, A: 255}
	OccludedColor = color.RGBA{R: 255, A: 255}

	typeColors = map[occlusion.ObjectType]color.RGBA{
		occlusion.Unknown:    {R: 128, G: 128, B: 128, A: 255},
		occlusion.Target:     {R: 0, G: 200, B: 255, A: 255},
		occlusion.Occluder:   {R: 255, G: 140, B: 0, A: 255},
		occlusion.Background: {R: 90, G: 90, B: 200, A: 255},
	}
)

// TypeColor returns the outline colour for an object type.
func TypeColor(t occlusion.ObjectType) color.RGBA {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return typeColors[occlusion.Unknown]
}

// Overlay copies img and draws the object bounds coloured by type, then the
// tracking window in green, or red when occluded.
func Overlay(img image.Image, window image.Rectangle, occluded bool, objs []*occlusion.DetectedObject) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	for _, o := range objs {
		DrawRect(dst, o.Bounds, TypeColor(o.Type), 1)
	}
	col := TrackingColor
	if occluded {
		col = OccludedColor
	}
	DrawRect(dst, window, col, 2)
	return dst
}

// DrawRect draws an axis-aligned rectangle outline into dst.
func DrawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := range thickness {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
	}
	for t := range thickness {
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}

// Labels renders a label image: unassigned pixels black, watershed lines
// white and each basin in a distinct hue.
func Labels(l *segment.Labels) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	palette := Palette(l.Count)
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			id := l.At(x, y)
			switch {
			case id < 0:
				dst.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			case id == 0:
				dst.SetRGBA(x, y, color.RGBA{A: 255})
			default:
				dst.SetRGBA(x, y, palette[int(id)%len(palette)])
			}
		}
	}
	return dst
}

// Palette returns n evenly spaced, fully saturated colours.
func Palette(n int) []color.RGBA {
	if n < 1 {
		n = 1
	}
	out := make([]color.RGBA, n)
	for i := range out {
		c := colorful.Hsv(float64(i)*360/float64(n), 0.8, 0.95)
		r, g, b := c.RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// Save writes img to path; the format follows the extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
