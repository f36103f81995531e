package middleware

import (
	"net/http"
)

const (
	// DefaultMaxRequestSize bounds JSON bodies. A save request carries the
	// extracted text and the breakdown, so this is larger than a typical API.
	DefaultMaxRequestSize int64 = 2 << 20
)

// MaxRequestSize limits request bodies to maxBytes. Documents themselves are
// uploaded straight to blob storage and never pass through here.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, r, http.StatusRequestEntityTooLarge, "Request body too large", nil)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			defer func() { _ = r.Body.Close() }()

			next.ServeHTTP(w, r)
		})
	}
}
