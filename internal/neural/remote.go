package neural

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/kozaktomas/facetag/internal/embedding"
)

// FaceEmbedder is the part of the embedding server client used by Remote.
type FaceEmbedder interface {
	ComputeFaceEmbeddings(ctx context.Context, imageData []byte) (*embedding.FaceResponse, error)
}

// Remote delegates analysis to an InsightFace-style embedding server.
type Remote struct {
	client FaceEmbedder
}

// NewRemote wraps an embedding server client.
func NewRemote(client FaceEmbedder) *Remote {
	return &Remote{client: client}
}

func (r *Remote) DetectAll(ctx context.Context, img image.Image) ([]Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encoding image for embedding server: %w", err)
	}

	resp, err := r.client.ComputeFaceEmbeddings(ctx, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("computing face embeddings: %w", err)
	}

	dets := make([]Detection, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		if len(f.BBox) != 4 || len(f.Embedding) == 0 {
			continue
		}
		dets = append(dets, Detection{
			Box: Box{
				X:      f.BBox[0],
				Y:      f.BBox[1],
				Width:  f.BBox[2] - f.BBox[0],
				Height: f.BBox[3] - f.BBox[1],
			},
			Descriptor: Descriptor(f.Embedding),
			Confidence: f.DetScore,
		})
	}
	return dets, nil
}

func (r *Remote) DetectSingle(ctx context.Context, img image.Image) (*Detection, error) {
	dets, err := r.DetectAll(ctx, img)
	if err != nil {
		return nil, err
	}
	return Best(dets), nil
}

func (r *Remote) Close() error { return nil }
