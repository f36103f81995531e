package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout bounds ordinary API requests
	DefaultRequestTimeout = 30 * time.Second
	// DefaultAnalysisTimeout bounds routes that download, extract and call the
	// language model, including one fallback attempt.
	DefaultAnalysisTimeout = 120 * time.Second
)

const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// Timeout cancels the request context after timeout and answers 503 with the
// error envelope if the handler has not responded by then.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
