// Package workflow runs an uploaded assignment through extraction, quota
// enforcement, analysis and persistence.
package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	logpkg "github.com/benvon/break-my-assignment/internal/logger"
	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/benvon/break-my-assignment/internal/services/ai"
	"github.com/benvon/break-my-assignment/internal/services/extract"
	"github.com/benvon/break-my-assignment/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// MaxStoredTextChars bounds the extracted text kept with an assignment
	MaxStoredTextChars = 10000
	// DefaultPersistTimeout bounds the database write
	DefaultPersistTimeout = 5 * time.Second
	// UnnamedAssignment is used when the caller supplies no file name
	UnnamedAssignment = "Unnamed Assignment"
)

// Fetcher downloads a document
type Fetcher interface {
	Fetch(ctx context.Context, fileURL string) ([]byte, error)
}

// Extractor turns document bytes into text
type Extractor interface {
	Extract(ctx context.Context, format extract.Format, data []byte) (string, error)
}

// Analyzer produces a breakdown of assignment text
type Analyzer interface {
	Analyze(ctx context.Context, text, model string) (*ai.Breakdown, error)
}

// QuotaTracker enforces and records the free-tier allowance
type QuotaTracker interface {
	HasReachedLimit(ctx context.Context, email string) bool
	RecordUpload(ctx context.Context, email, assignmentID, fileName, fileType string) error
}

// AssignmentStore persists analysis results
type AssignmentStore interface {
	Create(ctx context.Context, a *models.Assignment) error
}

// ParseInput identifies the document to extract
type ParseInput struct {
	FileURL  string
	FileType string
}

// SaveInput is a completed analysis to persist
type SaveInput struct {
	FileURL    string
	FileName   string
	ParsedText string
	Analysis   string
	ModelUsed  string
	OwnerID    string
}

// AnalysisData is what the caller keeps when persistence failed
type AnalysisData struct {
	FileName string `json:"file_name"`
	Analysis string `json:"analysis"`
}

// SaveResult reports whether the analysis was stored. StorageFailed results
// still carry the analysis so it is never lost.
type SaveResult struct {
	AssignmentID  string
	Assignment    *models.Assignment
	StorageFailed bool
	StorageError  string
	AnalysisData  *AnalysisData
}

// ProcessInput is a single-call upload request
type ProcessInput struct {
	FileURL  string
	FileName string
	FileType string
	Model    string
	// Session is nil for anonymous callers
	Session *models.Session
}

// ProcessResult is the outcome of a full pipeline run
type ProcessResult struct {
	Analysis           string
	ModelUsed          string
	Fallback           bool
	OriginalModelError string
	AssignmentID       string
	StorageFailed      bool
	IsAuthenticated    bool
}

// Service runs the assignment analysis pipeline
type Service struct {
	fetcher        Fetcher
	extractor      Extractor
	analyzer       Analyzer
	quota          QuotaTracker
	assignments    AssignmentStore
	persistTimeout time.Duration
	logger         *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithPersistTimeout overrides the database write timeout
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

// NewService creates a workflow service
func NewService(fetcher Fetcher, extractor Extractor, analyzer Analyzer, quota QuotaTracker, assignments AssignmentStore, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		fetcher:        fetcher,
		extractor:      extractor,
		analyzer:       analyzer,
		quota:          quota,
		assignments:    assignments,
		persistTimeout: DefaultPersistTimeout,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parse downloads the document and returns its text. The format is checked
// before anything is downloaded.
func (s *Service) Parse(ctx context.Context, in ParseInput) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "workflow.parse")
	text, err := s.parse(ctx, in)
	span.SetAttributes(attribute.Int("text_length", len(text)))
	telemetry.EndSpan(span, err)
	return text, err
}

// Analyze requests a breakdown of text, falling back to the default model once
func (s *Service) Analyze(ctx context.Context, text, model string) (*ai.Breakdown, error) {
	ctx, span := telemetry.StartSpan(ctx, "workflow.analyze", trace.WithAttributes(attribute.String("requested_model", model)))
	breakdown, err := s.analyze(ctx, text, model)
	if breakdown != nil {
		span.SetAttributes(
			attribute.String("model_used", breakdown.ModelUsed),
			attribute.Bool("fallback", breakdown.Fallback),
		)
	}
	telemetry.EndSpan(span, err)
	return breakdown, err
}

// Save persists a completed analysis. Only missing input is an error; a failed
// or slow write yields a SaveResult with StorageFailed set.
func (s *Service) Save(ctx context.Context, in SaveInput) (*SaveResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "workflow.save")
	result, err := s.save(ctx, in)
	if result != nil {
		span.SetAttributes(attribute.Bool("storage_failed", result.StorageFailed))
	}
	telemetry.EndSpan(span, err)
	return result, err
}

// Process runs parse, quota check, analysis and save in one call. The quota is
// checked before the model is called and an upload is recorded only once the
// result has been stored.
func (s *Service) Process(ctx context.Context, in ProcessInput) (*ProcessResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "workflow.process")
	result, err := s.process(ctx, in)
	span.SetAttributes(attribute.String("outcome", outcome(result, err)))
	telemetry.EndSpan(span, err)
	return result, err
}

func outcome(result *ProcessResult, err error) string {
	switch {
	case err != nil:
		if kind := KindOf(err); kind != "" {
			return string(kind)
		}
		return "error"
	case result.StorageFailed:
		return string(KindPersistenceFailed)
	default:
		return "ok"
	}
}

func (s *Service) parse(ctx context.Context, in ParseInput) (string, error) {
	if strings.TrimSpace(in.FileURL) == "" {
		return "", &Error{Kind: KindInvalidInput, Message: "File URL is required", Missing: map[string]bool{"file_url": true}}
	}

	format, err := extract.DetectFormat(in.FileURL, in.FileType)
	if err != nil {
		return "", newError(KindUnsupportedFormat, "Unsupported file format", err)
	}

	data, err := s.fetcher.Fetch(ctx, in.FileURL)
	if err != nil {
		s.logger.Warn("document_fetch_failed",
			zap.String("file_url", logpkg.SanitizeURL(in.FileURL)),
			zap.Error(err),
		)
		return "", newError(KindExtractionFailed, err.Error(), err)
	}

	text, err := s.extractor.Extract(ctx, format, data)
	if err != nil {
		s.logger.Warn("document_extraction_failed",
			zap.String("file_url", logpkg.SanitizeURL(in.FileURL)),
			zap.String("format", string(format)),
			zap.Int("size_bytes", len(data)),
			zap.Error(err),
		)
		return "", newError(KindExtractionFailed, err.Error(), err)
	}

	if strings.TrimSpace(text) == "" {
		return "", newError(KindNoTextExtracted, "No text could be extracted from the file", nil)
	}

	return text, nil
}

func (s *Service) analyze(ctx context.Context, text, model string) (*ai.Breakdown, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Kind: KindInvalidInput, Message: "Parsed text is required", Missing: map[string]bool{"parsed_text": true}}
	}

	breakdown, err := s.analyzer.Analyze(ctx, text, model)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyText) {
			return nil, newError(KindInvalidInput, "Parsed text is required", err)
		}
		return nil, newError(KindAnalysisFailed, err.Error(), err)
	}

	if breakdown.Fallback {
		s.logger.Info("llm_fallback_used",
			zap.String("requested_model", breakdown.RequestedModel),
			zap.String("model_used", breakdown.ModelUsed),
		)
	}

	return breakdown, nil
}

func (s *Service) save(ctx context.Context, in SaveInput) (*SaveResult, error) {
	missing := map[string]bool{
		"file_url":     strings.TrimSpace(in.FileURL) == "",
		"parsed_text":  strings.TrimSpace(in.ParsedText) == "",
		"ai_breakdown": strings.TrimSpace(in.Analysis) == "",
	}
	if missing["file_url"] || missing["parsed_text"] || missing["ai_breakdown"] {
		return nil, &Error{Kind: KindInvalidInput, Message: "Required fields missing", Missing: missing}
	}

	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		fileName = UnnamedAssignment
	}
	modelUsed := in.ModelUsed
	if modelUsed == "" {
		modelUsed = ai.DefaultModel
	}
	ownerID := in.OwnerID
	if ownerID == "" {
		ownerID = models.AnonymousUserID
	}

	assignment := &models.Assignment{
		FileName:      fileName,
		FileURL:       in.FileURL,
		ExtractedText: ai.TruncateText(in.ParsedText, MaxStoredTextChars),
		Analysis:      in.Analysis,
		AIModel:       modelUsed,
		UserID:        ownerID,
	}

	// The timeout can fire after the INSERT commits. The row then exists but is
	// reported as unsaved, and Process does not count it against the quota.
	persistCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	if err := s.assignments.Create(persistCtx, assignment); err != nil {
		s.logger.Error("persistence_failed",
			zap.String("file_name", fileName),
			zap.String("user_id", logpkg.MaskEmail(ownerID)),
			zap.Duration("timeout", s.persistTimeout),
			zap.Error(err),
		)
		return &SaveResult{
			StorageFailed: true,
			StorageError:  err.Error(),
			AnalysisData: &AnalysisData{
				FileName: fileName,
				Analysis: in.Analysis,
			},
		}, nil
	}

	return &SaveResult{
		AssignmentID: assignment.ID.String(),
		Assignment:   assignment,
	}, nil
}

func (s *Service) process(ctx context.Context, in ProcessInput) (*ProcessResult, error) {
	start := time.Now()
	ownerID := in.Session.OwnerID()
	authenticated := ownerID != models.AnonymousUserID

	text, err := s.Parse(ctx, ParseInput{FileURL: in.FileURL, FileType: in.FileType})
	if err != nil {
		return nil, err
	}

	if authenticated && s.quota.HasReachedLimit(ctx, ownerID) {
		s.logger.Info("upload_limit_reached", zap.String("user_id", logpkg.MaskEmail(ownerID)))
		return nil, newError(KindLimitReached, "Monthly upload limit reached", nil)
	}

	ctx = ai.WithUserID(ctx, ownerID)
	breakdown, err := s.Analyze(ctx, text, in.Model)
	if err != nil {
		return nil, err
	}

	saved, err := s.Save(ctx, SaveInput{
		FileURL:    in.FileURL,
		FileName:   in.FileName,
		ParsedText: text,
		Analysis:   breakdown.Analysis,
		ModelUsed:  breakdown.ModelUsed,
		OwnerID:    ownerID,
	})
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{
		Analysis:           breakdown.Analysis,
		ModelUsed:          breakdown.ModelUsed,
		Fallback:           breakdown.Fallback,
		OriginalModelError: breakdown.OriginalModelError,
		AssignmentID:       saved.AssignmentID,
		StorageFailed:      saved.StorageFailed,
		IsAuthenticated:    authenticated,
	}

	if authenticated && !saved.StorageFailed {
		fileType := in.FileType
		if fileType == "" {
			if format, err := extract.DetectFormat(in.FileURL, ""); err == nil {
				fileType = format.MIMEType()
			}
		}
		if err := s.quota.RecordUpload(ctx, ownerID, saved.AssignmentID, saved.Assignment.FileName, fileType); err != nil {
			s.logger.Error("quota_record_failed",
				zap.String("user_id", logpkg.MaskEmail(ownerID)),
				zap.String("assignment_id", saved.AssignmentID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("assignment_processed",
		zap.String("assignment_id", result.AssignmentID),
		zap.String("model_used", result.ModelUsed),
		zap.Bool("fallback", result.Fallback),
		zap.Bool("storage_failed", result.StorageFailed),
		zap.Bool("authenticated", authenticated),
		zap.Int("text_length", len(text)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return result, nil
}
