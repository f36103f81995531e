package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/benvon/break-my-assignment/internal/request"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type mockRatelimitStore struct {
	mu    sync.Mutex
	rates map[string]string
	saved []*models.RatelimitConfig
}

func (m *mockRatelimitStore) Get(_ context.Context, key string) (*models.RatelimitConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rate, ok := m.rates[key]
	if !ok {
		return nil, nil
	}
	return &models.RatelimitConfig{ConfigKey: key, Rate: rate}, nil
}

func (m *mockRatelimitStore) Set(_ context.Context, c *models.RatelimitConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, c)
	return nil
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitReloader_EnforcesStoredRate(t *testing.T) {
	t.Parallel()

	store := &mockRatelimitStore{rates: map[string]string{"analysis": "2-M"}}
	reloader := NewRateLimitReloader(newTestRedis(t), store, "analysis", DefaultAnalysisRatelimitRate, zap.NewNop(), 0)
	if reloader == nil {
		t.Fatal("expected reloader")
	}
	handler := reloader.Middleware()(okHandler())

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/v1/analyze", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
		if i == 0 && w.Header().Get("X-RateLimit-Limit") != "2" {
			t.Errorf("X-RateLimit-Limit = %q, want 2", w.Header().Get("X-RateLimit-Limit"))
		}
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK || statuses[2] != http.StatusTooManyRequests {
		t.Errorf("statuses = %v, want [200 200 429]", statuses)
	}
	if len(store.saved) != 0 {
		t.Errorf("stored rate must not be overwritten, saved %v", store.saved)
	}
}

func TestRateLimitReloader_SeedsDefault(t *testing.T) {
	t.Parallel()

	store := &mockRatelimitStore{rates: map[string]string{}}
	reloader := NewRateLimitReloader(newTestRedis(t), store, "default", "", zap.NewNop(), 0)
	_ = reloader.Middleware()(okHandler())

	if len(store.saved) != 1 {
		t.Fatalf("expected default to be saved once, got %d", len(store.saved))
	}
	if store.saved[0].ConfigKey != "default" || store.saved[0].Rate != DefaultRatelimitRate {
		t.Errorf("unexpected saved config %+v", store.saved[0])
	}
}

func TestRateLimitReloader_KeysByIdentity(t *testing.T) {
	t.Parallel()

	store := &mockRatelimitStore{rates: map[string]string{"analysis": "1-M"}}
	handler := NewRateLimitReloader(newTestRedis(t), store, "analysis", "", zap.NewNop(), 0).Middleware()(okHandler())

	send := func(email string) int {
		req := httptest.NewRequest("POST", "/api/v1/process-assignment", nil)
		req.RemoteAddr = "10.0.0.9:1"
		if email != "" {
			req = req.WithContext(request.WithSession(req.Context(), &models.Session{Email: email}))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if send("a@example.com") != http.StatusOK {
		t.Error("first request for a@example.com should pass")
	}
	if send("b@example.com") != http.StatusOK {
		t.Error("b@example.com has its own budget behind the same IP")
	}
	if send("a@example.com") != http.StatusTooManyRequests {
		t.Error("second request for a@example.com should be limited")
	}
}

func TestRateLimitReloader_InvalidRateFallsBack(t *testing.T) {
	t.Parallel()

	store := &mockRatelimitStore{rates: map[string]string{"default": "not-a-rate"}}
	handler := NewRateLimitReloader(newTestRedis(t), store, "default", "1-H", zap.NewNop(), 0).Middleware()(okHandler())

	codes := []int{}
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/api/v1/models", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestRateLimitReloader_SharedAcrossRouters(t *testing.T) {
	t.Parallel()

	store := &mockRatelimitStore{rates: map[string]string{"default": "2-M"}}
	reloader := NewRateLimitReloader(newTestRedis(t), store, "default", "", zap.NewNop(), 0)
	save := reloader.Middleware()(okHandler())
	models := reloader.Middleware()(okHandler())

	send := func(h http.Handler, path string) int {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = "10.0.0.5:1"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if send(save, "/api/v1/save") != http.StatusOK || send(models, "/api/v1/models") != http.StatusOK {
		t.Fatal("first two requests should pass")
	}
	if send(save, "/api/v1/save") != http.StatusTooManyRequests {
		t.Error("routers sharing a group must share its budget")
	}
}
