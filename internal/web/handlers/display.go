package handlers

import (
	"image"
	"log"
	"net/http"

	"github.com/kozaktomas/facetag/internal/imageio"
	"github.com/kozaktomas/facetag/internal/render"
	"github.com/kozaktomas/facetag/internal/session"
	"github.com/kozaktomas/facetag/internal/web/middleware"
)

// DisplayHandler serves the current session's displayed image and overlay.
type DisplayHandler struct{}

// NewDisplayHandler creates a new display handler.
func NewDisplayHandler() *DisplayHandler {
	return &DisplayHandler{}
}

func currentState(w http.ResponseWriter, r *http.Request) (session.State, bool) {
	sess := middleware.MustGetSession(r.Context(), w)
	if sess == nil {
		return session.State{}, false
	}
	state := sess.State()
	if state.Image == nil || state.Overlay == nil {
		respondError(w, http.StatusNotFound, "nothing displayed")
		return session.State{}, false
	}
	return state, true
}

func writeImage(w http.ResponseWriter, img image.Image, displayID string, format imageio.Format) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Display-ID", displayID)
	if err := imageio.Encode(w, img, format, imageio.EncodeOptions{}); err != nil {
		log.Printf("Failed to encode display image: %v", err)
	}
}

// Image returns the displayed image as PNG.
func (h *DisplayHandler) Image(w http.ResponseWriter, r *http.Request) {
	state, ok := currentState(w, r)
	if !ok {
		return
	}
	writeImage(w, state.Image.Image, state.Image.ID, imageio.FormatPNG)
}

// Overlay returns the transparent overlay as PNG.
func (h *DisplayHandler) Overlay(w http.ResponseWriter, r *http.Request) {
	state, ok := currentState(w, r)
	if !ok {
		return
	}
	writeImage(w, state.Overlay.Image(), state.Image.ID, imageio.FormatPNG)
}

// Annotated returns the displayed image with the overlay composited on top.
// The optional format query parameter selects png, jpg or webp.
func (h *DisplayHandler) Annotated(w http.ResponseWriter, r *http.Request) {
	format, err := imageio.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, ok := currentState(w, r)
	if !ok {
		return
	}
	writeImage(w, render.Composite(state.Image.Image, state.Overlay), state.Image.ID, format)
}

// Clear removes the displayed image and overlay.
func (h *DisplayHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context(), w)
	if sess == nil {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"removed": sess.Clear(),
	})
}
