package imageio

import (
	"image"

	"github.com/disintegration/imaging"
)

// Policy decides how an upload becomes the displayed image and the buffer
// handed to the face detector.
type Policy struct {
	// Fixed stretches the upload onto a FixedWidth x FixedHeight canvas that is
	// both displayed and analysed.
	Fixed       bool
	FixedWidth  int
	FixedHeight int
	// MaxSize bounds the analysed buffer's longest side when not Fixed. The
	// original upload is displayed unchanged.
	MaxSize int
}

// Prepared holds the displayed image and the detection buffer derived from it.
type Prepared struct {
	Display image.Image
	Buffer  image.Image
}

// Prepare applies the policy to a decoded upload.
func Prepare(img image.Image, p Policy) Prepared {
	if p.Fixed && p.FixedWidth > 0 && p.FixedHeight > 0 {
		canvas := imaging.Resize(img, p.FixedWidth, p.FixedHeight, imaging.Lanczos)
		return Prepared{Display: canvas, Buffer: canvas}
	}

	buffer := img
	b := img.Bounds()
	if p.MaxSize > 0 && (b.Dx() > p.MaxSize || b.Dy() > p.MaxSize) {
		buffer = imaging.Fit(img, p.MaxSize, p.MaxSize, imaging.Lanczos)
	}
	return Prepared{Display: img, Buffer: buffer}
}
