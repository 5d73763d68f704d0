package enroll

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/kozaktomas/facetag/internal/neural"
)

// fakeSource serves a tiny image whose width encodes the image index.
type fakeSource struct {
	missing map[string]bool
}

func (s *fakeSource) Fetch(ctx context.Context, name string, index int) (image.Image, error) {
	if s.missing[fmt.Sprintf("%s/%d", name, index)] {
		return nil, errors.New("404")
	}
	return image.NewRGBA(image.Rect(0, 0, index, 1)), nil
}

// fakeAnalyzer returns one face per image, keyed by image width (= index).
// Indices in noFace yield no faces and indices in failing return an error.
type fakeAnalyzer struct {
	noFace  map[int]bool
	failing map[int]bool
}

func (a *fakeAnalyzer) DetectAll(ctx context.Context, img image.Image) ([]neural.Detection, error) {
	w := img.Bounds().Dx()
	if a.failing[w] {
		return nil, errors.New("detector crashed")
	}
	if a.noFace[w] {
		return nil, nil
	}
	return []neural.Detection{{Descriptor: neural.Descriptor{float32(w)}, Confidence: 1}}, nil
}

func (a *fakeAnalyzer) DetectSingle(ctx context.Context, img image.Image) (*neural.Detection, error) {
	dets, err := a.DetectAll(ctx, img)
	if err != nil {
		return nil, err
	}
	return neural.Best(dets), nil
}

func (a *fakeAnalyzer) Close() error { return nil }

func TestRun_AllSucceed(t *testing.T) {
	result := Run(context.Background(), &fakeAnalyzer{}, &fakeSource{}, []string{"Temirlan", "Elon"}, 2, Options{})

	if len(result.Sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(result.Sets))
	}
	for i, name := range []string{"Temirlan", "Elon"} {
		if result.Sets[i].Label != name {
			t.Errorf("Sets[%d].Label = %q, want %q", i, result.Sets[i].Label, name)
		}
		if len(result.Sets[i].Descriptors) != 2 {
			t.Errorf("Sets[%d] has %d descriptors, want 2", i, len(result.Sets[i].Descriptors))
		}
	}
	if result.Enrolled() != 4 {
		t.Errorf("Enrolled() = %d, want 4", result.Enrolled())
	}
	if len(result.Skipped()) != 0 {
		t.Errorf("expected no skipped images, got %v", result.Skipped())
	}
}

func TestRun_FailedIdentityKeepsSlot(t *testing.T) {
	source := &fakeSource{missing: map[string]bool{"B/1": true, "B/2": true}}
	result := Run(context.Background(), &fakeAnalyzer{}, source, []string{"A", "B"}, 2, Options{})

	if len(result.Sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(result.Sets))
	}
	if result.Sets[0].Label != "A" || len(result.Sets[0].Descriptors) != 2 {
		t.Errorf("unexpected set A: %+v", result.Sets[0])
	}
	if result.Sets[1].Label != "B" || len(result.Sets[1].Descriptors) != 0 {
		t.Errorf("unexpected set B: %+v", result.Sets[1])
	}

	skipped := result.Skipped()
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped, got %d", len(skipped))
	}
	for _, o := range skipped {
		if o.Identity != "B" || o.Status != StatusFetchFailed || o.Err == nil {
			t.Errorf("unexpected skipped outcome: %+v", o)
		}
	}
}

func TestRun_OutcomeStatuses(t *testing.T) {
	analyzer := &fakeAnalyzer{
		noFace:  map[int]bool{2: true},
		failing: map[int]bool{3: true},
	}
	result := Run(context.Background(), analyzer, &fakeSource{}, []string{"A"}, 3, Options{})

	want := []Status{StatusOK, StatusNoFace, StatusDetectFailed}
	if len(result.Outcomes) != len(want) {
		t.Fatalf("expected %d outcomes, got %d", len(want), len(result.Outcomes))
	}
	for i, o := range result.Outcomes {
		if o.Index != i+1 {
			t.Errorf("Outcomes[%d].Index = %d, want %d", i, o.Index, i+1)
		}
		if o.Status != want[i] {
			t.Errorf("Outcomes[%d].Status = %q, want %q", i, o.Status, want[i])
		}
	}
	if len(result.Sets[0].Descriptors) != 1 {
		t.Errorf("expected 1 descriptor, got %d", len(result.Sets[0].Descriptors))
	}
}

func TestRun_OutcomesOrdered(t *testing.T) {
	names := []string{"A", "B", "C", "D"}
	result := Run(context.Background(), &fakeAnalyzer{}, &fakeSource{}, names, 2, Options{})

	if len(result.Outcomes) != 8 {
		t.Fatalf("expected 8 outcomes, got %d", len(result.Outcomes))
	}
	for i, o := range result.Outcomes {
		if o.Identity != names[i/2] || o.Index != i%2+1 {
			t.Errorf("Outcomes[%d] = %s/%d", i, o.Identity, o.Index)
		}
	}
}

func TestRun_OnImage(t *testing.T) {
	var mu sync.Mutex
	seen := 0
	opts := Options{OnImage: func(ImageOutcome) {
		mu.Lock()
		seen++
		mu.Unlock()
	}}

	Run(context.Background(), &fakeAnalyzer{}, &fakeSource{}, []string{"A", "B"}, 3, opts)
	if seen != 6 {
		t.Errorf("OnImage called %d times, want 6", seen)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Run(ctx, &fakeAnalyzer{}, &fakeSource{}, []string{"A"}, 2, Options{})
	if result.Enrolled() != 0 {
		t.Errorf("expected no descriptors after cancel, got %d", result.Enrolled())
	}
	for _, o := range result.Outcomes {
		if o.Status != StatusFetchFailed || !errors.Is(o.Err, context.Canceled) {
			t.Errorf("unexpected outcome: %+v", o)
		}
	}
}

func TestRun_NoNames(t *testing.T) {
	result := Run(context.Background(), &fakeAnalyzer{}, &fakeSource{}, nil, 2, Options{})
	if len(result.Sets) != 0 || len(result.Outcomes) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
