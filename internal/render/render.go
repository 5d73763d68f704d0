// Package render draws labeled face boxes onto a transparent overlay that is
// laid over the displayed image.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kozaktomas/facetag/internal/constants"
	"github.com/kozaktomas/facetag/internal/neural"
)

var (
	// KnownColor is used for boxes of recognised identities.
	KnownColor = color.NRGBA{R: 0, G: 128, B: 0, A: 255}
	// UnknownColor is used for boxes labeled unknown.
	UnknownColor = color.NRGBA{R: 255, G: 0, B: 0, A: 255}

	labelTextColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

const labelPadding = 4

// Overlay is a transparent drawing surface matching the displayed image.
type Overlay struct {
	img   *image.NRGBA
	drawn int
}

// NewOverlay creates a blank overlay sized w x h.
func NewOverlay(w, h int) *Overlay {
	return &Overlay{img: image.NewNRGBA(image.Rect(0, 0, w, h))}
}

// OverlayFor creates a blank overlay matching img's dimensions.
func OverlayFor(img image.Image) *Overlay {
	b := img.Bounds()
	return NewOverlay(b.Dx(), b.Dy())
}

// Bounds returns the overlay rectangle.
func (o *Overlay) Bounds() image.Rectangle {
	return o.img.Bounds()
}

// Image exposes the underlying pixels.
func (o *Overlay) Image() *image.NRGBA {
	return o.img
}

// Drawn returns the number of boxes drawn so far.
func (o *Overlay) Drawn() int {
	return o.drawn
}

// DrawBox strokes box and places label above its top-left corner. Pixels
// falling outside the overlay are clipped.
func (o *Overlay) DrawBox(box neural.Box, label string, known bool) {
	c := UnknownColor
	if known {
		c = KnownColor
	}
	src := image.NewUniform(c)
	lw := constants.BoxLineWidth

	outer := box.Rect().Inset(-lw / 2)
	inner := outer.Inset(lw)
	strips := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y),
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y),
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y),
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y),
	}
	for _, s := range strips {
		draw.Draw(o.img, s, src, image.Point{}, draw.Src)
	}

	if label != "" {
		o.drawLabel(label, outer.Min.X, int(box.Y+0.5), src)
	}
	o.drawn++
}

// drawLabel renders a filled text field whose bottom-left corner sits at
// (x, y), shifted back inside the overlay when it would overflow.
func (o *Overlay) drawLabel(label string, x, y int, bg image.Image) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	textW := font.MeasureString(face, label).Ceil()
	textH := metrics.Height.Ceil()

	fieldW := textW + 2*labelPadding
	fieldH := textH + 2*labelPadding

	b := o.img.Bounds()
	left := max(min(x, b.Max.X-fieldW), b.Min.X)
	top := max(min(y-fieldH, b.Max.Y-fieldH), b.Min.Y)

	field := image.Rect(left, top, left+fieldW, top+fieldH)
	draw.Draw(o.img, field, bg, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  o.img,
		Src:  image.NewUniform(labelTextColor),
		Face: face,
		Dot:  fixed.P(left+labelPadding, top+labelPadding+metrics.Ascent.Ceil()),
	}
	d.DrawString(label)
}

// Composite lays the overlay over the displayed image.
func Composite(display image.Image, o *Overlay) *image.NRGBA {
	return imaging.Overlay(display, o.img, image.Pt(0, 0), 1.0)
}
