// Package facematch holds helpers shared by the CLI and web handlers for
// placing detections on the displayed image and comparing identity names.
package facematch

import (
	"image"

	"github.com/kozaktomas/facetag/internal/neural"
)

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DimensionsOf returns the size of img.
func DimensionsOf(img image.Image) Dimensions {
	b := img.Bounds()
	return Dimensions{Width: b.Dx(), Height: b.Dy()}
}

// ScaleBox maps a box from the from coordinate space into to.
func ScaleBox(box neural.Box, from, to Dimensions) neural.Box {
	sx, sy := scaleFactors(from, to)
	return neural.Box{
		X:      box.X * sx,
		Y:      box.Y * sy,
		Width:  box.Width * sx,
		Height: box.Height * sy,
	}
}

// ResizeResults rescales every detection from the analysed buffer to the
// displayed image. Descriptors and confidences are carried over untouched.
func ResizeResults(dets []neural.Detection, from, to Dimensions) []neural.Detection {
	if len(dets) == 0 {
		return nil
	}
	sx, sy := scaleFactors(from, to)

	out := make([]neural.Detection, len(dets))
	for i, d := range dets {
		out[i] = d
		out[i].Box = ScaleBox(d.Box, from, to)
		if len(d.Landmarks) > 0 {
			out[i].Landmarks = make([]neural.Point, len(d.Landmarks))
			for j, p := range d.Landmarks {
				out[i].Landmarks[j] = neural.Point{X: p.X * sx, Y: p.Y * sy}
			}
		}
	}
	return out
}

// ClampBox limits box to the [0,width)x[0,height) area. Boxes partially
// outside the image are common with dlib's detector near the edges.
func ClampBox(box neural.Box, dims Dimensions) neural.Box {
	x1 := min(max(box.X, 0), float64(dims.Width))
	y1 := min(max(box.Y, 0), float64(dims.Height))
	x2 := min(max(box.X+box.Width, 0), float64(dims.Width))
	y2 := min(max(box.Y+box.Height, 0), float64(dims.Height))
	return neural.Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func scaleFactors(from, to Dimensions) (float64, float64) {
	if from.Width <= 0 || from.Height <= 0 {
		return 1, 1
	}
	return float64(to.Width) / float64(from.Width), float64(to.Height) / float64(from.Height)
}
