package models

import (
	"time"

	"github.com/google/uuid"
)

// OIDCConfig is the stored configuration of the identity provider that issues sign-in tokens
type OIDCConfig struct {
	ID           uuid.UUID `json:"id"`
	Provider     string    `json:"provider"`
	Issuer       string    `json:"issuer"`
	Domain       *string   `json:"domain,omitempty"` // OAuth2 domain when it differs from the issuer (Cognito custom domains)
	ClientID     string    `json:"client_id"`
	ClientSecret *string   `json:"-"` // nil for public clients
	RedirectURI  string    `json:"redirect_uri"`
	JWKSUrl      *string   `json:"jwks_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasClientSecret reports whether the provider is configured as a confidential client
func (c *OIDCConfig) HasClientSecret() bool {
	return c.ClientSecret != nil && *c.ClientSecret != ""
}
