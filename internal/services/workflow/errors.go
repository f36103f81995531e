package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure for callers
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindExtractionFailed  Kind = "extraction_failed"
	KindNoTextExtracted   Kind = "no_text_extracted"
	KindLimitReached      Kind = "limit_reached"
	KindAnalysisFailed    Kind = "analysis_failed"
	// KindPersistenceFailed is never returned as an error; it is reported through SaveResult.StorageFailed
	KindPersistenceFailed Kind = "persistence_failed"
)

// Error is a classified workflow failure
type Error struct {
	Kind    Kind
	Message string
	// Missing lists required fields that were absent, for KindInvalidInput
	Missing map[string]bool
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is a workflow error of the given kind
func IsKind(err error, kind Kind) bool {
	var wfErr *Error
	return errors.As(err, &wfErr) && wfErr.Kind == kind
}

// KindOf returns the kind of a workflow error, or "" for any other error
func KindOf(err error) Kind {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return ""
}
