package neural

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/kozaktomas/facetag/internal/embedding"
)

func TestBest(t *testing.T) {
	tests := []struct {
		name string
		dets []Detection
		want int // index into dets, -1 for nil
	}{
		{"empty", nil, -1},
		{"single", []Detection{{Confidence: 0.5}}, 0},
		{"highest confidence", []Detection{{Confidence: 0.5}, {Confidence: 0.9}, {Confidence: 0.7}}, 1},
		{
			"tie broken by area",
			[]Detection{
				{Confidence: 1, Box: Box{Width: 10, Height: 10}},
				{Confidence: 1, Box: Box{Width: 30, Height: 30}},
			},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Best(tt.dets)
			if tt.want < 0 {
				if got != nil {
					t.Errorf("Best() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Best() = nil")
			}
			if got.Confidence != tt.dets[tt.want].Confidence || got.Box != tt.dets[tt.want].Box {
				t.Errorf("Best() = %+v, want %+v", *got, tt.dets[tt.want])
			}
		})
	}
}

func TestBox_Rect(t *testing.T) {
	b := Box{X: 10.4, Y: 19.6, Width: 20, Height: 30}
	want := image.Rect(10, 20, 30, 50)
	if got := b.Rect(); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
}

type fakeEmbedder struct {
	resp *embedding.FaceResponse
	err  error
	got  []byte
}

func (f *fakeEmbedder) ComputeFaceEmbeddings(_ context.Context, data []byte) (*embedding.FaceResponse, error) {
	f.got = data
	return f.resp, f.err
}

func TestRemote_DetectAll(t *testing.T) {
	fake := &fakeEmbedder{resp: &embedding.FaceResponse{
		FacesCount: 3,
		Faces: []embedding.FaceDetection{
			{Embedding: []float32{1, 0}, BBox: []float64{10, 20, 50, 80}, DetScore: 0.8},
			{Embedding: []float32{0, 1}, BBox: []float64{1, 2}, DetScore: 0.9},
			{Embedding: nil, BBox: []float64{0, 0, 5, 5}, DetScore: 0.9},
		},
	}}
	remote := NewRemote(fake)

	dets, err := remote.DetectAll(context.Background(), image.NewRGBA(image.Rect(0, 0, 64, 64)))
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	if len(fake.got) == 0 {
		t.Error("expected encoded image to be sent")
	}
	if len(dets) != 1 {
		t.Fatalf("expected malformed faces to be dropped, got %d detections", len(dets))
	}
	want := Box{X: 10, Y: 20, Width: 40, Height: 60}
	if dets[0].Box != want {
		t.Errorf("Box = %+v, want %+v", dets[0].Box, want)
	}
	if dets[0].Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", dets[0].Confidence)
	}
}

func TestRemote_DetectSingle(t *testing.T) {
	fake := &fakeEmbedder{resp: &embedding.FaceResponse{
		Faces: []embedding.FaceDetection{
			{Embedding: []float32{1}, BBox: []float64{0, 0, 10, 10}, DetScore: 0.6},
			{Embedding: []float32{2}, BBox: []float64{0, 0, 10, 10}, DetScore: 0.95},
		},
	}}

	det, err := NewRemote(fake).DetectSingle(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8)))
	if err != nil {
		t.Fatalf("DetectSingle() error = %v", err)
	}
	if det == nil || det.Descriptor[0] != 2 {
		t.Errorf("expected most confident face, got %+v", det)
	}
}

func TestRemote_NoFaces(t *testing.T) {
	fake := &fakeEmbedder{resp: &embedding.FaceResponse{}}

	det, err := NewRemote(fake).DetectSingle(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8)))
	if err != nil {
		t.Fatalf("DetectSingle() error = %v", err)
	}
	if det != nil {
		t.Errorf("expected nil detection, got %+v", det)
	}
}

func TestRemote_Error(t *testing.T) {
	fake := &fakeEmbedder{err: errors.New("connection refused")}

	if _, err := NewRemote(fake).DetectAll(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8))); err == nil {
		t.Error("expected error to propagate")
	}
}
