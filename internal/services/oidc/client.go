package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/break-my-assignment/internal/models"
	"golang.org/x/oauth2"
)

// ErrMissingIDToken is returned when the token response has no id_token
var ErrMissingIDToken = errors.New("token response did not include an id_token")

// Client wraps OAuth2 client functionality
type Client struct {
	config *oauth2.Config
}

// Tokens is the result of a successful code exchange
type Tokens struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// NewClient creates a new OAuth2 client from OIDC config
func NewClient(oidcConfig *models.OIDCConfig, endpoints Endpoints) *Client {
	clientSecret := ""
	if oidcConfig.HasClientSecret() {
		clientSecret = *oidcConfig.ClientSecret
	}

	config := &oauth2.Config{
		ClientID:     oidcConfig.ClientID,
		ClientSecret: clientSecret,
		RedirectURL:  oidcConfig.RedirectURI,
		Scopes:       strings.Fields(DefaultScope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  endpoints.AuthorizationEndpoint,
			TokenURL: endpoints.TokenEndpoint,
		},
	}

	return &Client{config: config}
}

// ExchangeCode exchanges an authorization code for tokens. The id_token is
// what the API accepts as a bearer token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Tokens, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, ErrMissingIDToken
	}

	tokens := &Tokens{
		IDToken:      idToken,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
	}
	if !token.Expiry.IsZero() {
		tokens.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}
	return tokens, nil
}

// AuthCodeURL returns the authorization URL
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}
