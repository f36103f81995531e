package ai

import (
	"context"

	logpkg "github.com/benvon/break-my-assignment/internal/logger"
)

type contextKey string

const (
	userIDContextKey    contextKey = "user_id"
	requestIDContextKey contextKey = "request_id"
)

// WithUserID attaches the caller identity used in LLM debug logs
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// WithRequestID attaches the request ID used in LLM debug logs
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// ExtractRequestID returns the request ID attached with WithRequestID
func ExtractRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// ExtractUserID returns the caller identity attached with WithUserID, masked for logging
func ExtractUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey).(string)
	return logpkg.MaskEmail(id)
}

// contentPreview bounds prompts and responses written to debug logs
func contentPreview(s string) string {
	return logpkg.SanitizeString(s, logpkg.MaxDebugContentLength)
}
