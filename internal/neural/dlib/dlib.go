// Package dlib implements neural.Analyzer on top of dlib through go-face.
package dlib

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/kozaktomas/facetag/internal/neural"
)

// Recognizer wraps a go-face recognizer. The model directory must contain
// shape_predictor_5_face_landmarks.dat, dlib_face_recognition_resnet_model_v1.dat
// and, for CNN detection, mmod_human_face_detector.dat.
type Recognizer struct {
	rec *face.Recognizer
	cnn bool
	mu  sync.Mutex
}

// Load loads the dlib models from modelDir.
func Load(modelDir string, cnn bool) (*Recognizer, error) {
	rec, err := face.NewRecognizer(modelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", neural.ErrModelLoad, modelDir, err)
	}
	return &Recognizer{rec: rec, cnn: cnn}, nil
}

func (r *Recognizer) DetectAll(ctx context.Context, img image.Image) ([]neural.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// dlib only decodes JPEG.
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encoding image for dlib: %w", err)
	}

	r.mu.Lock()
	var faces []face.Face
	var err error
	if r.cnn {
		faces, err = r.rec.RecognizeCNN(buf.Bytes())
	} else {
		faces, err = r.rec.Recognize(buf.Bytes())
	}
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("face recognition failed: %w", err)
	}

	dets := make([]neural.Detection, len(faces))
	for i, f := range faces {
		rect := f.Rectangle
		landmarks := make([]neural.Point, len(f.Shapes))
		for j, p := range f.Shapes {
			landmarks[j] = neural.Point{X: float64(p.X), Y: float64(p.Y)}
		}
		desc := make(neural.Descriptor, len(f.Descriptor))
		copy(desc, f.Descriptor[:])
		dets[i] = neural.Detection{
			Box: neural.Box{
				X:      float64(rect.Min.X),
				Y:      float64(rect.Min.Y),
				Width:  float64(rect.Dx()),
				Height: float64(rect.Dy()),
			},
			Landmarks:  landmarks,
			Descriptor: desc,
			Confidence: 1.0, // go-face doesn't report detector confidence
		}
	}
	return dets, nil
}

func (r *Recognizer) DetectSingle(ctx context.Context, img image.Image) (*neural.Detection, error) {
	dets, err := r.DetectAll(ctx, img)
	if err != nil {
		return nil, err
	}
	return neural.Best(dets), nil
}

func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rec != nil {
		r.rec.Close()
		r.rec = nil
	}
	return nil
}
