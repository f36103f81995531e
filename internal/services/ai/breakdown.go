package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Breakdown is the result of analyzing one assignment
type Breakdown struct {
	Analysis           string `json:"ai_breakdown"`
	ModelUsed          string `json:"model_used"`
	RequestedModel     string `json:"requested_model"`
	Fallback           bool   `json:"fallback"`
	OriginalModelError string `json:"original_model_error,omitempty"`
}

// AnalysisError is returned when no model produced a breakdown
type AnalysisError struct {
	Model         string
	Err           error
	FallbackModel string
	FallbackErr   error
}

func (e *AnalysisError) Error() string {
	if e.FallbackErr != nil {
		return fmt.Sprintf("analysis with %s failed: %v; fallback %s failed: %v", e.Model, e.Err, e.FallbackModel, e.FallbackErr)
	}
	return fmt.Sprintf("analysis with %s failed: %v", e.Model, e.Err)
}

func (e *AnalysisError) Unwrap() []error {
	if e.FallbackErr != nil {
		return []error{e.Err, e.FallbackErr}
	}
	return []error{e.Err}
}

// BreakdownService turns assignment text into a structured Markdown breakdown
type BreakdownService struct {
	completer    ChatCompleter
	defaultModel string
	logger       *zap.Logger
}

// NewBreakdownService creates a breakdown service. defaultModel is both the
// model used when none is requested and the fallback target.
func NewBreakdownService(completer ChatCompleter, defaultModel string, logger *zap.Logger) *BreakdownService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreakdownService{
		completer:    completer,
		defaultModel: ResolveModel(defaultModel, DefaultModel),
		logger:       logger,
	}
}

// DefaultModel returns the model used as fallback target
func (s *BreakdownService) DefaultModel() string {
	return s.defaultModel
}

// Analyze requests a breakdown of text. An unknown model resolves to the default.
// When a non-default model fails the default model is tried exactly once.
func (s *BreakdownService) Analyze(ctx context.Context, text, model string) (*Breakdown, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	modelToUse := ResolveModel(model, s.defaultModel)
	prompt := BuildBreakdownPrompt(text)

	analysis, err := s.completer.Complete(ctx, s.request(modelToUse, prompt))
	if err == nil {
		return &Breakdown{
			Analysis:       analysis,
			ModelUsed:      modelToUse,
			RequestedModel: model,
		}, nil
	}

	if modelToUse == s.defaultModel {
		return nil, &AnalysisError{Model: modelToUse, Err: err}
	}

	s.logger.Warn("llm_fallback_triggered",
		zap.String("model", modelToUse),
		zap.String("fallback_model", s.defaultModel),
		zap.String("reason", failureReason(err)),
		zap.Error(err),
	)

	fallbackAnalysis, fallbackErr := s.completer.Complete(ctx, s.request(s.defaultModel, prompt))
	if fallbackErr != nil {
		return nil, &AnalysisError{
			Model:         modelToUse,
			Err:           err,
			FallbackModel: s.defaultModel,
			FallbackErr:   fallbackErr,
		}
	}

	return &Breakdown{
		Analysis:           fallbackAnalysis,
		ModelUsed:          s.defaultModel,
		RequestedModel:     model,
		Fallback:           true,
		OriginalModelError: err.Error(),
	}, nil
}

func (s *BreakdownService) request(model, prompt string) CompletionRequest {
	return CompletionRequest{
		Model:        model,
		SystemPrompt: SystemPrompt,
		UserPrompt:   prompt,
		MaxTokens:    MaxTokensFor(model),
		Temperature:  Temperature,
	}
}

// failureReason classifies a provider error for logs
func failureReason(err error) string {
	switch {
	case IsQuotaError(err):
		return "quota_exceeded"
	case IsRateLimitError(err):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
