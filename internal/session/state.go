// Package session keeps the per-browser display state: the currently shown
// image, its overlay, and the counter that discards superseded results.
package session

import (
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/facetag/internal/render"
)

// Display is an image currently shown to the user.
type Display struct {
	ID        string
	Image     image.Image
	CreatedAt time.Time
}

// NewDisplay wraps img with a fresh artifact id.
func NewDisplay(img image.Image) *Display {
	return &Display{
		ID:        uuid.NewString(),
		Image:     img,
		CreatedAt: time.Now(),
	}
}

// State holds at most one displayed image and at most one overlay.
type State struct {
	Image   *Display
	Overlay *render.Overlay
}

// Removed counts what a teardown discarded.
type Removed struct {
	Images   int `json:"images"`
	Overlays int `json:"overlays"`
}

// Empty reports whether nothing is displayed.
func (s State) Empty() bool {
	return s.Image == nil && s.Overlay == nil
}

// Teardown returns an empty state and what was removed. Tearing down an
// empty state is a no-op.
func (s State) Teardown() (State, Removed) {
	var removed Removed
	if s.Image != nil {
		removed.Images++
	}
	if s.Overlay != nil {
		removed.Overlays++
	}
	return State{}, removed
}
