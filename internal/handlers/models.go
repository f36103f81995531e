package handlers

import (
	"net/http"

	"github.com/benvon/break-my-assignment/internal/services/ai"
	"github.com/gorilla/mux"
)

// ModelsHandler lists the selectable language models
type ModelsHandler struct {
	defaultModel string
}

// NewModelsHandler creates a models handler
func NewModelsHandler(defaultModel string) *ModelsHandler {
	return &ModelsHandler{defaultModel: ai.ResolveModel("", defaultModel)}
}

// RegisterRoutes registers model routes
func (h *ModelsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/models", h.ListModels).Methods("GET")
}

// ModelsResponse is the model catalog
type ModelsResponse struct {
	Models       []ai.ModelInfo `json:"models"`
	DefaultModel string         `json:"default_model"`
}

// ListModels returns the model catalog
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ModelsResponse{
		Models:       ai.AvailableModels(h.defaultModel),
		DefaultModel: h.defaultModel,
	})
}
