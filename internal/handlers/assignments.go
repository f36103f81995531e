package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/benvon/break-my-assignment/internal/database"
	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/benvon/break-my-assignment/internal/request"
	"github.com/benvon/break-my-assignment/internal/services/ai"
	"github.com/benvon/break-my-assignment/internal/services/workflow"
	"github.com/benvon/break-my-assignment/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// WorkflowService runs the assignment pipeline
type WorkflowService interface {
	Parse(ctx context.Context, in workflow.ParseInput) (string, error)
	Analyze(ctx context.Context, text, model string) (*ai.Breakdown, error)
	Save(ctx context.Context, in workflow.SaveInput) (*workflow.SaveResult, error)
	Process(ctx context.Context, in workflow.ProcessInput) (*workflow.ProcessResult, error)
}

// AssignmentReader reads stored assignments
type AssignmentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Assignment, error)
}

// AssignmentHandler serves the upload, analysis and result endpoints
type AssignmentHandler struct {
	workflow    WorkflowService
	assignments AssignmentReader
	logger      *zap.Logger
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(wf WorkflowService, assignments AssignmentReader, logger *zap.Logger) *AssignmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentHandler{workflow: wf, assignments: assignments, logger: logger}
}

// RegisterAnalysisRoutes registers the routes that extract or analyze documents.
// The router carries optional authentication and the analysis rate limit.
func (h *AssignmentHandler) RegisterAnalysisRoutes(r *mux.Router) {
	r.HandleFunc("/parse", h.Parse).Methods("POST")
	r.HandleFunc("/analyze", h.Analyze).Methods("POST")
	r.HandleFunc("/process-assignment", h.ProcessAssignment).Methods("POST")
}

// RegisterRoutes registers save and read routes. The router carries optional authentication.
func (h *AssignmentHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/save", h.Save).Methods("POST")
	r.HandleFunc("/assignments/{id}", h.GetAssignment).Methods("GET")
}

// RegisterAuthenticatedRoutes registers routes that need a signed-in caller
func (h *AssignmentHandler) RegisterAuthenticatedRoutes(r *mux.Router) {
	r.HandleFunc("/assignments", h.ListAssignments).Methods("GET")
}

// ParseRequest asks for a document's text
type ParseRequest struct {
	FileURL  string `json:"file_url" validate:"omitempty,url"`
	FileType string `json:"file_type" validate:"max=255"`
}

// ParseResponse carries extracted text
type ParseResponse struct {
	ParsedText string `json:"parsed_text"`
	FileURL    string `json:"file_url"`
}

// AnalyzeRequest asks for a breakdown of extracted text
type AnalyzeRequest struct {
	ParsedText string `json:"parsed_text"`
	Model      string `json:"model" validate:"model_id"`
}

// AnalyzeResponse carries the breakdown and the model that produced it
type AnalyzeResponse struct {
	AIBreakdown        string `json:"ai_breakdown"`
	ModelUsed          string `json:"model_used"`
	Fallback           bool   `json:"fallback"`
	OriginalModelError string `json:"original_model_error,omitempty"`
}

// SaveRequest persists a completed analysis
type SaveRequest struct {
	FileURL     string `json:"file_url"`
	FileName    string `json:"file_name" validate:"file_name"`
	ParsedText  string `json:"parsed_text"`
	AIBreakdown string `json:"ai_breakdown"`
	ModelUsed   string `json:"model_used" validate:"model_id"`
}

// SaveResponse reports a stored assignment or a soft storage failure
type SaveResponse struct {
	AssignmentID  string                 `json:"assignment_id,omitempty"`
	StorageFailed bool                   `json:"storage_failed,omitempty"`
	StorageError  string                 `json:"storage_error,omitempty"`
	AnalysisData  *workflow.AnalysisData `json:"analysis_data,omitempty"`
}

// ProcessRequest runs the whole pipeline in one call
type ProcessRequest struct {
	FileURL  string `json:"file_url" validate:"omitempty,url"`
	FileName string `json:"file_name" validate:"file_name"`
	FileType string `json:"file_type" validate:"max=255"`
	Model    string `json:"model" validate:"model_id"`
}

// ProcessResponse is the outcome of a pipeline run
type ProcessResponse struct {
	Analysis           string `json:"analysis"`
	ModelUsed          string `json:"model_used"`
	Fallback           bool   `json:"fallback"`
	OriginalModelError string `json:"original_model_error,omitempty"`
	AssignmentID       string `json:"assignment_id,omitempty"`
	IsAuthenticated    bool   `json:"is_authenticated"`
	StorageFailed      bool   `json:"storage_failed"`
}

// ListAssignmentsResponse lists the caller's assignments, newest first
type ListAssignmentsResponse struct {
	Assignments []*models.Assignment `json:"assignments"`
	Count       int                  `json:"count"`
}

// llmContext tags the context with the identifiers used in LLM debug logs
func llmContext(r *http.Request) context.Context {
	ctx := r.Context()
	if id := request.RequestIDFromContext(ctx); id != "" {
		ctx = ai.WithRequestID(ctx, id)
	}
	return ai.WithUserID(ctx, request.SessionFromContext(r).OwnerID())
}

// Parse extracts the text of an uploaded document
func (h *AssignmentHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	text, err := h.workflow.Parse(r.Context(), workflow.ParseInput{
		FileURL:  strings.TrimSpace(req.FileURL),
		FileType: strings.TrimSpace(req.FileType),
	})
	if err != nil {
		respondWorkflowError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, ParseResponse{ParsedText: text, FileURL: req.FileURL})
}

// Analyze produces a breakdown of previously extracted text
func (h *AssignmentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	breakdown, err := h.workflow.Analyze(llmContext(r), req.ParsedText, req.Model)
	if err != nil {
		respondWorkflowError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		AIBreakdown:        breakdown.Analysis,
		ModelUsed:          breakdown.ModelUsed,
		Fallback:           breakdown.Fallback,
		OriginalModelError: breakdown.OriginalModelError,
	})
}

// Save stores a completed analysis for the caller. A storage failure still
// answers 200 and hands the analysis back so the client keeps it.
func (h *AssignmentHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.workflow.Save(r.Context(), workflow.SaveInput{
		FileURL:    strings.TrimSpace(req.FileURL),
		FileName:   validation.SanitizeText(req.FileName),
		ParsedText: req.ParsedText,
		Analysis:   req.AIBreakdown,
		ModelUsed:  req.ModelUsed,
		OwnerID:    request.SessionFromContext(r).OwnerID(),
	})
	if err != nil {
		respondWorkflowError(w, h.logger, err)
		return
	}

	if result.StorageFailed {
		respondJSON(w, http.StatusOK, SaveResponse{
			StorageFailed: true,
			StorageError:  "Failed to save assignment",
			AnalysisData:  result.AnalysisData,
		})
		return
	}

	respondJSON(w, http.StatusCreated, SaveResponse{AssignmentID: result.AssignmentID})
}

// ProcessAssignment extracts, analyzes and stores a document in one call
func (h *AssignmentHandler) ProcessAssignment(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.workflow.Process(llmContext(r), workflow.ProcessInput{
		FileURL:  strings.TrimSpace(req.FileURL),
		FileName: validation.SanitizeText(req.FileName),
		FileType: strings.TrimSpace(req.FileType),
		Model:    req.Model,
		Session:  request.SessionFromContext(r),
	})
	if err != nil {
		respondWorkflowError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, ProcessResponse{
		Analysis:           result.Analysis,
		ModelUsed:          result.ModelUsed,
		Fallback:           result.Fallback,
		OriginalModelError: result.OriginalModelError,
		AssignmentID:       result.AssignmentID,
		IsAuthenticated:    result.IsAuthenticated,
		StorageFailed:      result.StorageFailed,
	})
}

// GetAssignment returns one assignment. Assignments owned by someone else are
// reported as not found.
func (h *AssignmentHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid assignment ID")
		return
	}

	assignment, err := h.assignments.GetByID(r.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Assignment not found")
			return
		}
		h.logger.Error("assignment_lookup_failed", zap.String("assignment_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve assignment")
		return
	}

	if !assignment.OwnedBy(request.SessionFromContext(r).OwnerID()) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Assignment not found")
		return
	}

	respondJSON(w, http.StatusOK, assignment)
}

// ListAssignments returns the caller's most recent assignments
func (h *AssignmentHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	session := request.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}

	assignments, err := h.assignments.ListByUser(r.Context(), session.OwnerID(), database.DefaultAssignmentListLimit)
	if err != nil {
		h.logger.Error("assignment_list_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve assignments")
		return
	}
	if assignments == nil {
		assignments = []*models.Assignment{}
	}

	respondJSON(w, http.StatusOK, ListAssignmentsResponse{Assignments: assignments, Count: len(assignments)})
}
