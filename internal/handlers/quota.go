package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/benvon/break-my-assignment/internal/request"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// QuotaReporter summarizes a user's upload allowance
type QuotaReporter interface {
	Status(ctx context.Context, email string) (*models.QuotaStatus, error)
}

// QuotaHandler serves the caller's quota status
type QuotaHandler struct {
	quota  QuotaReporter
	logger *zap.Logger
}

// NewQuotaHandler creates a quota handler
func NewQuotaHandler(quota QuotaReporter, logger *zap.Logger) *QuotaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotaHandler{quota: quota, logger: logger}
}

// RegisterRoutes registers quota routes. The router must require authentication.
func (h *QuotaHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/quota", h.GetQuota).Methods("GET")
}

// GetQuota returns the caller's standing against the free-tier limit
func (h *QuotaHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	session := request.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}

	status, err := h.quota.Status(r.Context(), session.Email)
	if err != nil {
		h.logger.Error("quota_status_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve quota")
		return
	}

	respondJSON(w, http.StatusOK, status)
}
