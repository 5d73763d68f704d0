// Package pipeline runs one upload through decode, detection, matching and
// overlay rendering, replacing whatever was displayed before.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/kozaktomas/facetag/internal/facematch"
	"github.com/kozaktomas/facetag/internal/imageio"
	"github.com/kozaktomas/facetag/internal/matcher"
	"github.com/kozaktomas/facetag/internal/neural"
	"github.com/kozaktomas/facetag/internal/render"
	"github.com/kozaktomas/facetag/internal/session"
)

var (
	// ErrInvalidImage is returned when the upload cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
	// ErrDetection is returned when the face analyzer fails.
	ErrDetection = errors.New("face detection failed")
)

// Status summarises what a run produced.
type Status string

const (
	StatusNoFile   Status = "no_file"
	StatusNoFaces  Status = "no_faces"
	StatusRendered Status = "rendered"
)

const noFacesMessage = "Face not found."

// Upload is a user-selected file.
type Upload struct {
	Name string
	Data []byte
}

// Matcher labels a descriptor.
type Matcher interface {
	FindBestMatch(query neural.Descriptor) matcher.Match
}

// Face is one labeled detection in display coordinates.
type Face struct {
	Box        neural.Box `json:"box"`
	Label      string     `json:"label"`
	Text       string     `json:"text"`
	Distance   *float64   `json:"distance,omitempty"`
	Known      bool       `json:"known"`
	Confidence float64    `json:"confidence"`
}

// Result describes one run.
type Result struct {
	Status    Status               `json:"status"`
	Message   string               `json:"message,omitempty"`
	DisplayID string               `json:"display_id,omitempty"`
	Display   facematch.Dimensions `json:"display"`
	Analysed  facematch.Dimensions `json:"analysed"`
	Faces     []Face               `json:"faces"`
	Removed   session.Removed      `json:"removed"`
}

// Pipeline is safe for concurrent use when its analyzer and matcher are.
type Pipeline struct {
	analyzer neural.Analyzer
	matcher  Matcher
	policy   imageio.Policy
}

// New creates a pipeline.
func New(analyzer neural.Analyzer, m Matcher, policy imageio.Policy) *Pipeline {
	return &Pipeline{analyzer: analyzer, matcher: m, policy: policy}
}

// Run tears prev down and renders upload. A nil upload only clears the
// display. On detection failure the decoded image stays displayed with a
// blank overlay.
func (p *Pipeline) Run(ctx context.Context, prev session.State, upload *Upload) (session.State, Result, error) {
	_, removed := prev.Teardown()
	result := Result{Removed: removed, Faces: []Face{}}

	if upload == nil {
		result.Status = StatusNoFile
		return session.State{}, result, nil
	}

	img, err := imageio.DecodeBytes(upload.Data)
	if err != nil {
		return session.State{}, result, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	prepared := imageio.Prepare(img, p.policy)

	display := session.NewDisplay(prepared.Display)
	state := session.State{
		Image:   display,
		Overlay: render.OverlayFor(prepared.Display),
	}
	result.DisplayID = display.ID
	result.Display = facematch.DimensionsOf(prepared.Display)
	result.Analysed = facematch.DimensionsOf(prepared.Buffer)

	dets, err := p.analyzer.DetectAll(ctx, prepared.Buffer)
	if err != nil {
		return state, result, fmt.Errorf("%w: %w", ErrDetection, err)
	}

	if len(dets) == 0 {
		log.Printf("Warning: face not found in %s", sanitizeForLog(upload.Name))
		result.Status = StatusNoFaces
		result.Message = noFacesMessage
		return state, result, nil
	}

	resized := facematch.ResizeResults(dets, result.Analysed, result.Display)
	for _, det := range resized {
		match := p.matcher.FindBestMatch(det.Descriptor)
		text := match.String()
		known := !match.Unknown()

		state.Overlay.DrawBox(det.Box, text, known)

		face := Face{
			Box:        det.Box,
			Label:      match.Label,
			Text:       text,
			Known:      known,
			Confidence: det.Confidence,
		}
		if !math.IsInf(match.Distance, 0) && !math.IsNaN(match.Distance) {
			d := match.Distance
			face.Distance = &d
		}
		result.Faces = append(result.Faces, face)
	}
	result.Status = StatusRendered
	return state, result, nil
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
