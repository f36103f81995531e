package middleware

import (
	"net/http"

	logpkg "github.com/benvon/break-my-assignment/internal/logger"
	"github.com/benvon/break-my-assignment/internal/request"
	"go.uber.org/zap"
)

// Audit logs rejected requests: failed authentication, refused access,
// exhausted upload quotas and rate limit violations.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &auditResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusUnauthorized:
				event = "authentication_failed"
			case http.StatusForbidden:
				// Quota refusals are the only 403 the API produces
				event = "upload_limit_refused"
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			default:
				return
			}

			logger.Warn(event,
				zap.String("request_id", request.RequestIDFromContext(r.Context())),
				zap.Int("status_code", wrapped.statusCode),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
				zap.String("user", logpkg.MaskEmail(request.SessionFromContext(r).OwnerID())),
			)
		})
	}
}

type auditResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (aw *auditResponseWriter) WriteHeader(code int) {
	aw.statusCode = code
	aw.ResponseWriter.WriteHeader(code)
}
