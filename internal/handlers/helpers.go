package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/benvon/break-my-assignment/internal/services/ai"
	"github.com/benvon/break-my-assignment/internal/services/extract"
	"github.com/benvon/break-my-assignment/internal/services/workflow"
	"github.com/benvon/break-my-assignment/internal/validation"
	"go.uber.org/zap"
)

// maxErrorMessageLength bounds error messages returned to clients
const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage truncates messages to maxErrorMessageLength characters
// so internal detail does not leak in bulk
func sanitizeErrorMessage(message string) string {
	if truncated := ai.TruncateText(message, maxErrorMessageLength); truncated != message {
		return truncated + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	respondJSONErrorWith(w, status, errorType, message, nil)
}

// respondJSONErrorWith sends an error response carrying extra top-level fields
func respondJSONErrorWith(w http.ResponseWriter, status int, errorType, message string, extra map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		response[k] = v
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the caller may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body too large")
		case errors.Is(err, io.EOF):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Request body is required")
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		}
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.Message(err))
		return false
	}
	return true
}

// workflowErrorStatus maps a workflow failure to its HTTP status
func workflowErrorStatus(err error) int {
	switch workflow.KindOf(err) {
	case workflow.KindInvalidInput, workflow.KindUnsupportedFormat, workflow.KindNoTextExtracted:
		return http.StatusBadRequest
	case workflow.KindExtractionFailed:
		var fetchErr *extract.FetchError
		switch {
		case errors.Is(err, extract.ErrFileTooLarge):
			return http.StatusRequestEntityTooLarge
		case errors.As(err, &fetchErr):
			return http.StatusBadGateway
		default:
			return http.StatusUnprocessableEntity
		}
	case workflow.KindLimitReached:
		return http.StatusForbidden
	case workflow.KindAnalysisFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWorkflowError translates a workflow error into the error envelope
func respondWorkflowError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var wfErr *workflow.Error
	if !errors.As(err, &wfErr) {
		logger.Error("unclassified_workflow_error", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
		return
	}

	status := workflowErrorStatus(err)
	var extra map[string]any
	switch wfErr.Kind {
	case workflow.KindLimitReached:
		extra = map[string]any{"limit_reached": true}
	case workflow.KindInvalidInput:
		if len(wfErr.Missing) > 0 {
			extra = map[string]any{"missing": wfErr.Missing}
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Warn("workflow_request_failed",
			zap.String("kind", string(wfErr.Kind)),
			zap.Int("status_code", status),
			zap.Error(err),
		)
	}

	respondJSONErrorWith(w, status, string(wfErr.Kind), wfErr.Error(), extra)
}
