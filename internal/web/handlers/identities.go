package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facetag/internal/matcher"
)

// IdentityLister exposes the enrolled identities.
type IdentityLister interface {
	Identities() []matcher.Identity
	Lookup(name string) (matcher.Identity, bool)
}

// IdentitiesHandler handles the enrolled identity endpoints.
type IdentitiesHandler struct {
	identities IdentityLister
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(l IdentityLister) *IdentitiesHandler {
	return &IdentitiesHandler{identities: l}
}

// List returns all enrolled identities in roster order.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"identities": h.identities.Identities(),
	})
}

// Get returns one identity looked up by name, ignoring case and diacritics.
func (h *IdentitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id, ok := h.identities.Lookup(name)
	if !ok {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	respondJSON(w, http.StatusOK, id)
}
