package models

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is a stored analysis result. Records are immutable once created.
type Assignment struct {
	ID            uuid.UUID `json:"id"`
	FileName      string    `json:"file_name"`
	FileURL       string    `json:"file_url"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	Analysis      string    `json:"analysis"`
	AIModel       string    `json:"ai_model"`
	UserID        string    `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsAnonymous reports whether the assignment was created without an authenticated owner
func (a *Assignment) IsAnonymous() bool {
	return a.UserID == "" || a.UserID == AnonymousUserID
}

// OwnedBy reports whether the given owner id may read this assignment.
// Anonymous assignments are readable by anyone holding the id.
func (a *Assignment) OwnedBy(ownerID string) bool {
	if a.IsAnonymous() {
		return true
	}
	return a.UserID == ownerID
}
