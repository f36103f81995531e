package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/break-my-assignment/internal/models"
	"go.uber.org/zap"
)

type mockCorsStore struct {
	cfg *models.CorsConfig
	err error
}

func (m *mockCorsStore) Get(context.Context) (*models.CorsConfig, error) {
	return m.cfg, m.err
}

func TestCORSReloader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		store     *mockCorsStore
		origin    string
		wantAllow bool
	}{
		{
			name:      "stored origin allowed",
			store:     &mockCorsStore{cfg: &models.CorsConfig{AllowedOrigins: "https://app.example.com, https://beta.example.com", AllowCredentials: true}},
			origin:    "https://beta.example.com",
			wantAllow: true,
		},
		{
			name:   "unknown origin rejected",
			store:  &mockCorsStore{cfg: &models.CorsConfig{AllowedOrigins: "https://app.example.com"}},
			origin: "https://evil.example.com",
		},
		{
			name:      "frontend url used when store fails",
			store:     &mockCorsStore{err: errors.New("db down")},
			origin:    "https://frontend.example.com",
			wantAllow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reloader := NewCORSReloader(tt.store, "https://frontend.example.com", zap.NewNop(), 0)
			handler := reloader.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/process-assignment", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantAllow && got != tt.origin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.origin)
			}
			if !tt.wantAllow && got != "" {
				t.Errorf("expected no Access-Control-Allow-Origin, got %q", got)
			}
		})
	}
}

func TestCORSReloader_LoadSwapsPolicy(t *testing.T) {
	t.Parallel()

	store := &mockCorsStore{cfg: &models.CorsConfig{AllowedOrigins: "https://old.example.com"}}
	reloader := NewCORSReloader(store, "", zap.NewNop(), 0)
	handler := reloader.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := func(origin string) bool {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Header().Get("Access-Control-Allow-Origin") == origin
	}

	if !allowed("https://old.example.com") {
		t.Fatal("initial origin should be allowed")
	}

	store.cfg = &models.CorsConfig{AllowedOrigins: "https://new.example.com"}
	reloader.load(context.Background())

	if allowed("https://old.example.com") {
		t.Error("old origin should be rejected after reload")
	}
	if !allowed("https://new.example.com") {
		t.Error("new origin should be allowed after reload")
	}
}
