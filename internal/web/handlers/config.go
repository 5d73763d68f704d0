package handlers

import (
	"net/http"

	"github.com/kozaktomas/facetag/internal/config"
)

// ConfigHandler exposes the recognition settings the server runs with.
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Backend           string   `json:"backend"`
	Threshold         float64  `json:"threshold"`
	Strategy          string   `json:"strategy"`
	DetectPolicy      string   `json:"detect_policy"`
	ImagesPerIdentity int      `json:"images_per_identity"`
	Identities        []string `json:"identities"`
}

// Get returns the active configuration. Secrets and model paths are omitted.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	identities := h.config.Roster.Identities
	if identities == nil {
		identities = []string{}
	}
	respondJSON(w, http.StatusOK, ConfigResponse{
		Backend:           h.config.Models.Backend,
		Threshold:         h.config.Matcher.Threshold,
		Strategy:          h.config.Matcher.Strategy,
		DetectPolicy:      h.config.Detection.Policy,
		ImagesPerIdentity: h.config.Roster.ImagesPerIdentity,
		Identities:        identities,
	})
}
