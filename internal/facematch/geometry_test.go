package facematch

import (
	"image"
	"math"
	"testing"

	"github.com/kozaktomas/facetag/internal/neural"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func boxEqual(a, b neural.Box) bool {
	return almostEqual(a.X, b.X) && almostEqual(a.Y, b.Y) &&
		almostEqual(a.Width, b.Width) && almostEqual(a.Height, b.Height)
}

func TestDimensionsOf(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	got := DimensionsOf(img)
	if got.Width != 640 || got.Height != 480 {
		t.Errorf("DimensionsOf() = %+v, want 640x480", got)
	}
}

func TestScaleBox(t *testing.T) {
	tests := []struct {
		name     string
		box      neural.Box
		from     Dimensions
		to       Dimensions
		expected neural.Box
	}{
		{
			name:     "identity",
			box:      neural.Box{X: 10, Y: 20, Width: 30, Height: 40},
			from:     Dimensions{100, 100},
			to:       Dimensions{100, 100},
			expected: neural.Box{X: 10, Y: 20, Width: 30, Height: 40},
		},
		{
			name:     "upscale uniform",
			box:      neural.Box{X: 10, Y: 20, Width: 30, Height: 40},
			from:     Dimensions{100, 100},
			to:       Dimensions{200, 200},
			expected: neural.Box{X: 20, Y: 40, Width: 60, Height: 80},
		},
		{
			name:     "non uniform",
			box:      neural.Box{X: 100, Y: 70, Width: 100, Height: 70},
			from:     Dimensions{1000, 700},
			to:       Dimensions{500, 1400},
			expected: neural.Box{X: 50, Y: 140, Width: 50, Height: 140},
		},
		{
			name:     "zero source keeps box",
			box:      neural.Box{X: 1, Y: 2, Width: 3, Height: 4},
			from:     Dimensions{0, 0},
			to:       Dimensions{100, 100},
			expected: neural.Box{X: 1, Y: 2, Width: 3, Height: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScaleBox(tt.box, tt.from, tt.to)
			if !boxEqual(result, tt.expected) {
				t.Errorf("ScaleBox() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestResizeResults(t *testing.T) {
	dets := []neural.Detection{
		{
			Box:        neural.Box{X: 10, Y: 10, Width: 20, Height: 20},
			Landmarks:  []neural.Point{{X: 15, Y: 15}, {X: 25, Y: 15}},
			Descriptor: neural.Descriptor{0.1, 0.2},
			Confidence: 0.9,
		},
		{
			Box: neural.Box{X: 50, Y: 0, Width: 10, Height: 10},
		},
	}

	out := ResizeResults(dets, Dimensions{100, 50}, Dimensions{200, 150})
	if len(out) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(out))
	}

	if !boxEqual(out[0].Box, neural.Box{X: 20, Y: 30, Width: 40, Height: 60}) {
		t.Errorf("box[0] = %+v", out[0].Box)
	}
	if !almostEqual(out[0].Landmarks[1].X, 50) || !almostEqual(out[0].Landmarks[1].Y, 45) {
		t.Errorf("landmark[1] = %+v", out[0].Landmarks[1])
	}
	if out[0].Confidence != 0.9 || len(out[0].Descriptor) != 2 {
		t.Errorf("descriptor or confidence not carried over: %+v", out[0])
	}
	if out[1].Landmarks != nil {
		t.Errorf("expected nil landmarks, got %v", out[1].Landmarks)
	}

	// Input must not be modified.
	if dets[0].Box.X != 10 || dets[0].Landmarks[0].X != 15 {
		t.Errorf("input detections were mutated: %+v", dets[0])
	}
}

func TestResizeResults_Empty(t *testing.T) {
	if out := ResizeResults(nil, Dimensions{1, 1}, Dimensions{2, 2}); out != nil {
		t.Errorf("expected nil, got %v", out)
	}
}

func TestClampBox(t *testing.T) {
	dims := Dimensions{100, 80}
	tests := []struct {
		name     string
		box      neural.Box
		expected neural.Box
	}{
		{"inside", neural.Box{X: 10, Y: 10, Width: 20, Height: 20}, neural.Box{X: 10, Y: 10, Width: 20, Height: 20}},
		{"negative origin", neural.Box{X: -5, Y: -10, Width: 20, Height: 20}, neural.Box{X: 0, Y: 0, Width: 15, Height: 10}},
		{"overflow", neural.Box{X: 90, Y: 70, Width: 20, Height: 20}, neural.Box{X: 90, Y: 70, Width: 10, Height: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClampBox(tt.box, dims)
			if !boxEqual(result, tt.expected) {
				t.Errorf("ClampBox() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}
