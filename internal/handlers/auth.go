package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/break-my-assignment/internal/database"
	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/benvon/break-my-assignment/internal/request"
	"github.com/benvon/break-my-assignment/internal/services/oidc"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// OIDCService provides sign-in configuration and code exchange
type OIDCService interface {
	GetLoginConfig(ctx context.Context, providerName string) (*oidc.LoginConfig, error)
	ExchangeCode(ctx context.Context, providerName, code string) (*oidc.Tokens, error)
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	oidc         OIDCService
	providerName string
	quota        QuotaReporter
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(oidcService OIDCService, providerName string, quota QuotaReporter, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{oidc: oidcService, providerName: providerName, quota: quota, logger: logger}
}

// RegisterPublicRoutes registers the sign-in routes. The router should already have the /api/v1/auth prefix.
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
	r.HandleFunc("/oidc/callback", h.OIDCCallback).Methods("POST")
}

// RegisterRoutes registers routes that need a session
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// GetOIDCLogin returns OIDC configuration for frontend
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	loginConfig, err := h.oidc.GetLoginConfig(r.Context(), h.providerName)
	if err != nil {
		if database.IsNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Sign-in is not configured")
			return
		}
		h.logger.Error("oidc_login_config_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to get OIDC configuration")
		return
	}

	respondJSON(w, http.StatusOK, loginConfig)
}

// CallbackRequest carries the authorization code returned by the provider
type CallbackRequest struct {
	Code string `json:"code" validate:"required,max=2048"`
}

// OIDCCallback exchanges an authorization code for tokens
func (h *AuthHandler) OIDCCallback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tokens, err := h.oidc.ExchangeCode(r.Context(), h.providerName, req.Code)
	if err != nil {
		if errors.Is(err, oidc.ErrMissingIDToken) {
			respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Identity provider did not return an ID token")
			return
		}
		h.logger.Warn("oidc_code_exchange_failed", zap.Error(err))
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authorization code exchange failed")
		return
	}

	respondJSON(w, http.StatusOK, tokens)
}

// MeResponse is the signed-in caller and their quota
type MeResponse struct {
	*models.Session
	Quota *models.QuotaStatus `json:"quota,omitempty"`
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	session := request.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	resp := MeResponse{Session: session}
	if h.quota != nil {
		status, err := h.quota.Status(r.Context(), session.Email)
		if err != nil {
			h.logger.Warn("quota_status_failed", zap.Error(err))
		} else {
			resp.Quota = status
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
