package oidc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/benvon/break-my-assignment/internal/models"
)

func stringPtr(s string) *string {
	return &s
}

var testEndpoints = Endpoints{
	AuthorizationEndpoint: "https://auth.example.com/oauth2/authorize",
	TokenEndpoint:         "https://auth.example.com/oauth2/token",
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		oidcConfig *models.OIDCConfig
		validate   func(*testing.T, *Client)
	}{
		{
			name: "with client secret",
			oidcConfig: &models.OIDCConfig{
				ClientID:     "test-client-id",
				ClientSecret: stringPtr("test-secret"),
				RedirectURI:  "http://localhost:3000/callback",
				Issuer:       "https://auth.example.com",
			},
			validate: func(t *testing.T, client *Client) {
				if client.config.ClientID != "test-client-id" {
					t.Errorf("Expected ClientID 'test-client-id', got '%s'", client.config.ClientID)
				}
				if client.config.ClientSecret != "test-secret" {
					t.Errorf("Expected ClientSecret 'test-secret', got '%s'", client.config.ClientSecret)
				}
				if client.config.Endpoint.TokenURL != testEndpoints.TokenEndpoint {
					t.Errorf("Expected token URL %s, got %s", testEndpoints.TokenEndpoint, client.config.Endpoint.TokenURL)
				}
				if len(client.config.Scopes) != 3 {
					t.Errorf("Expected 3 scopes, got %v", client.config.Scopes)
				}
			},
		},
		{
			name: "without client secret (public client)",
			oidcConfig: &models.OIDCConfig{
				ClientID:    "test-client-id",
				RedirectURI: "http://localhost:3000/callback",
				Issuer:      "https://auth.example.com",
			},
			validate: func(t *testing.T, client *Client) {
				if client.config.ClientSecret != "" {
					t.Errorf("Expected empty ClientSecret for public client, got '%s'", client.config.ClientSecret)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.validate(t, NewClient(tt.oidcConfig, testEndpoints))
		})
	}
}

func TestClient_AuthCodeURL(t *testing.T) {
	t.Parallel()

	client := NewClient(&models.OIDCConfig{
		ClientID:    "test-client-id",
		RedirectURI: "http://localhost:3000/callback",
		Issuer:      "https://auth.example.com",
	}, testEndpoints)

	raw := client.AuthCodeURL("test-state-123")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthCodeURL returned invalid URL %q: %v", raw, err)
	}
	q := u.Query()
	if q.Get("state") != "test-state-123" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("client_id") != "test-client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("scope") != DefaultScope {
		t.Errorf("scope = %q, want %q", q.Get("scope"), DefaultScope)
	}
}

func TestClient_ExchangeCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   bool
		wantIDErr bool
	}{
		{
			name:   "id token returned",
			status: http.StatusOK,
			body:   `{"access_token":"access","id_token":"header.payload.sig","token_type":"Bearer","expires_in":3600}`,
		},
		{
			name:      "no id token",
			status:    http.StatusOK,
			body:      `{"access_token":"access","token_type":"Bearer"}`,
			wantErr:   true,
			wantIDErr: true,
		},
		{
			name:    "invalid grant",
			status:  http.StatusBadRequest,
			body:    `{"error":"invalid_grant"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "auth-code" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(&models.OIDCConfig{ClientID: "client", RedirectURI: "http://localhost/cb"}, Endpoints{
				AuthorizationEndpoint: server.URL + "/authorize",
				TokenEndpoint:         server.URL + "/token",
			})

			tokens, err := client.ExchangeCode(context.Background(), "auth-code")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.wantIDErr && !errors.Is(err, ErrMissingIDToken) {
					t.Errorf("expected ErrMissingIDToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExchangeCode() error = %v", err)
			}
			if tokens.IDToken != "header.payload.sig" || tokens.AccessToken != "access" {
				t.Errorf("unexpected tokens %+v", tokens)
			}
			if tokens.ExpiresIn <= 0 || tokens.ExpiresIn > 3600 {
				t.Errorf("ExpiresIn = %d", tokens.ExpiresIn)
			}
		})
	}
}
