package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/break-my-assignment/internal/models"
)

// DefaultScope is requested for every sign-in
const DefaultScope = "openid email profile"

// ConfigStore loads stored provider configuration
type ConfigStore interface {
	GetByProvider(ctx context.Context, provider string) (*models.OIDCConfig, error)
}

// Provider manages OIDC provider configuration
type Provider struct {
	store      ConfigStore
	httpClient *http.Client
}

// NewProvider creates a new OIDC provider manager
func NewProvider(store ConfigStore) *Provider {
	return &Provider{
		store:      store,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// GetConfig retrieves OIDC configuration for a provider
func (p *Provider) GetConfig(ctx context.Context, providerName string) (*models.OIDCConfig, error) {
	config, err := p.store.GetByProvider(ctx, providerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get OIDC config: %w", err)
	}
	return config, nil
}

// Endpoints are the OAuth2 endpoints of a provider
type Endpoints struct {
	AuthorizationEndpoint string
	TokenEndpoint         string
}

// ResolveEndpoints finds the OAuth2 endpoints from the discovery document,
// falling back to issuer-relative paths. A configured Cognito domain overrides both.
func (p *Provider) ResolveEndpoints(ctx context.Context, config *models.OIDCConfig) Endpoints {
	issuer := strings.TrimSuffix(config.Issuer, "/")
	endpoints := Endpoints{
		AuthorizationEndpoint: issuer + "/oauth2/authorize",
		TokenEndpoint:         issuer + "/oauth2/token",
	}

	if discovered, err := p.discover(ctx, issuer); err == nil {
		if discovered.AuthorizationEndpoint != "" {
			endpoints.AuthorizationEndpoint = discovered.AuthorizationEndpoint
		}
		if discovered.TokenEndpoint != "" {
			endpoints.TokenEndpoint = discovered.TokenEndpoint
		}
	}

	// Cognito OAuth2 flows are served from the hosted domain, not the issuer
	if config.Domain != nil && *config.Domain != "" && strings.Contains(config.Issuer, "cognito-idp.") {
		baseURL := strings.TrimSuffix(*config.Domain, "/")
		if !strings.HasPrefix(baseURL, "https://") {
			baseURL = "https://" + baseURL
		}
		endpoints.AuthorizationEndpoint = baseURL + "/oauth2/authorize"
		endpoints.TokenEndpoint = baseURL + "/oauth2/token"
	}

	return endpoints
}

type discoveryDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
}

func (p *Provider) discover(ctx context.Context, issuer string) (*discoveryDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	return &doc, nil
}

// GetLoginConfig returns the configuration needed for frontend OIDC login
func (p *Provider) GetLoginConfig(ctx context.Context, providerName string) (*LoginConfig, error) {
	config, err := p.GetConfig(ctx, providerName)
	if err != nil {
		return nil, err
	}

	endpoints := p.ResolveEndpoints(ctx, config)
	return &LoginConfig{
		AuthorizationEndpoint: endpoints.AuthorizationEndpoint,
		TokenEndpoint:         endpoints.TokenEndpoint,
		ClientID:              config.ClientID,
		RedirectURI:           config.RedirectURI,
		Scope:                 DefaultScope,
	}, nil
}

// NewClient builds an OAuth2 client for the named provider
func (p *Provider) NewClient(ctx context.Context, providerName string) (*Client, error) {
	config, err := p.GetConfig(ctx, providerName)
	if err != nil {
		return nil, err
	}
	return NewClient(config, p.ResolveEndpoints(ctx, config)), nil
}

// LoginConfig contains OIDC login configuration for frontend
type LoginConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}

// ExchangeCode trades an authorization code from the named provider for tokens
func (p *Provider) ExchangeCode(ctx context.Context, providerName, code string) (*Tokens, error) {
	client, err := p.NewClient(ctx, providerName)
	if err != nil {
		return nil, err
	}
	return client.ExchangeCode(ctx, code)
}
