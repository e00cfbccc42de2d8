// ABOUTME: Minimal raster drawing capability shared by the heatmap renderer, chart plotting, and front-ends.
// ABOUTME: Provides an image-backed surface with PNG encoding and a recording surface for inspection.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
)

// Surface is the only drawing capability the renderers need.
type Surface interface {
	Width() int
	Height() int
	FillRect(x, y, w, h int, c color.Color)
}

// Gray returns the opaque gray with the given intensity (0 = black).
func Gray(intensity uint8) color.RGBA {
	return color.RGBA{R: intensity, G: intensity, B: intensity, A: 0xff}
}

// White is the background of every freshly cleared surface.
var White = Gray(255)

// Clear fills the whole surface with c.
func Clear(s Surface, c color.Color) {
	s.FillRect(0, 0, s.Width(), s.Height(), c)
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 9:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("want #rrggbb or #rrggbbaa")
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// Image is a Surface backed by an *image.RGBA with y growing downwards.
type Image struct {
	img *image.RGBA
}

// NewImage returns a white w x h image surface.
func NewImage(w, h int) *Image {
	s := &Image{img: image.NewRGBA(image.Rect(0, 0, w, h))}
	Clear(s, White)
	return s
}

func (s *Image) Width() int  { return s.img.Bounds().Dx() }
func (s *Image) Height() int { return s.img.Bounds().Dy() }

// FillRect paints the rectangle, clipped to the image bounds.
func (s *Image) FillRect(x, y, w, h int, c color.Color) {
	r := image.Rect(x, y, x+w, y+h).Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// At returns the color of one pixel.
func (s *Image) At(x, y int) color.RGBA {
	return s.img.RGBAAt(x, y)
}

// Image exposes the backing image.
func (s *Image) Image() *image.RGBA {
	return s.img
}

// EncodePNG writes the surface as a PNG.
func (s *Image) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.img)
}

// Rect is one recorded FillRect call.
type Rect struct {
	X, Y, W, H int
	Color      color.RGBA
}

// Recorder is a Surface that records every FillRect call in order.
type Recorder struct {
	W, H  int
	Rects []Rect
}

// NewRecorder returns an empty recorder of the given size.
func NewRecorder(w, h int) *Recorder {
	return &Recorder{W: w, H: h}
}

func (r *Recorder) Width() int  { return r.W }
func (r *Recorder) Height() int { return r.H }

func (r *Recorder) FillRect(x, y, w, h int, c color.Color) {
	r.Rects = append(r.Rects, Rect{X: x, Y: y, W: w, H: h, Color: color.RGBAModel.Convert(c).(color.RGBA)})
}

// Reset drops the recorded calls.
func (r *Recorder) Reset() {
	r.Rects = r.Rects[:0]
}
