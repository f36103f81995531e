package models

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousUserID is stored as the owner of assignments created without an authenticated identity.
const AnonymousUserID = "anonymous"

// User represents a user in the system. Email is the identity used for quota tracking.
type User struct {
	ID            uuid.UUID      `json:"id"`
	Email         string         `json:"email"`
	ProviderID    *string        `json:"provider_id,omitempty"`
	Name          *string        `json:"name,omitempty"`
	EmailVerified bool           `json:"email_verified"`
	IsPro         bool           `json:"is_pro"`
	Uploads       []UploadRecord `json:"uploads,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// UploadRecord is one entry of a user's append-only upload log
type UploadRecord struct {
	AssignmentID string    `json:"assignment_id"`
	Timestamp    time.Time `json:"timestamp"`
	FileName     string    `json:"file_name"`
	FileType     string    `json:"file_type"`
}
