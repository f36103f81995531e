package middleware

import (
	"fmt"
	"net/http"

	"github.com/benvon/break-my-assignment/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Default rates per route group, in ulule format
const (
	DefaultRatelimitRate         = "5-S"
	DefaultAnalysisRatelimitRate = "10-M"
)

// Route groups, also the config_key of each group's stored rate
const (
	RatelimitGroupDefault  = "default"
	RatelimitGroupAnalysis = "analysis"
)

// newGroupStore creates a Redis store whose keys are namespaced by route group
func newGroupStore(client *redis.Client, group string) (limiter.Store, error) {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: fmt.Sprintf("ratelimit:%s", group),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}
	return store, nil
}

// rateLimitKey keys authenticated callers by identity and everyone else by client IP
func rateLimitKey(r *http.Request) string {
	if session := request.SessionFromContext(r); session != nil && session.Email != "" {
		return "user:" + session.Email
	}
	return "ip:" + request.ClientIP(r)
}

func newLimiterMiddleware(store limiter.Store, rate limiter.Rate) *stdlibmw.Middleware {
	return stdlibmw.NewMiddleware(limiter.New(store, rate), stdlibmw.WithKeyGetter(rateLimitKey))
}
