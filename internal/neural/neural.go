// Package neural defines the boundary to the face-analysis capability: face
// detection, landmark estimation and descriptor extraction. The capability
// itself is opaque; backends live in subpackages or adapt remote services.
package neural

import (
	"context"
	"errors"
	"image"
)

// ErrModelLoad wraps any failure to bring a backend up. It is fatal at startup.
var ErrModelLoad = errors.New("loading face models")

// Descriptor is a fixed-length vector summarising a face's identity-relevant features.
type Descriptor []float32

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect converts the box to an integer rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.X+0.5), int(b.Y+0.5), int(b.X+b.Width+0.5), int(b.Y+b.Height+0.5))
}

// Area returns the box area in square pixels.
func (b Box) Area() float64 {
	return b.Width * b.Height
}

// Point is a landmark position in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is one detected face.
type Detection struct {
	Box        Box        `json:"box"`
	Landmarks  []Point    `json:"landmarks,omitempty"`
	Descriptor Descriptor `json:"-"`
	Confidence float64    `json:"confidence"`
}

// Analyzer runs detection, landmark estimation and descriptor extraction.
type Analyzer interface {
	// DetectAll returns every face found in img.
	DetectAll(ctx context.Context, img image.Image) ([]Detection, error)
	// DetectSingle returns the most confident face, or nil when there is none.
	DetectSingle(ctx context.Context, img image.Image) (*Detection, error)
	Close() error
}

// Best picks the most confident detection; ties go to the larger box.
func Best(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(dets); i++ {
		d, b := dets[i], dets[best]
		if d.Confidence > b.Confidence || (d.Confidence == b.Confidence && d.Box.Area() > b.Box.Area()) {
			best = i
		}
	}
	det := dets[best]
	return &det
}
