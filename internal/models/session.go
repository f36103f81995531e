package models

import "github.com/google/uuid"

// Session is the typed identity attached to an authenticated request.
// It is built once from the verified token claims and the stored user record.
type Session struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name,omitempty"`
	IsPro  bool      `json:"is_pro"`
}

// NewSession maps a stored user to the session exposed to handlers.
func NewSession(user *User) *Session {
	if user == nil {
		return nil
	}
	s := &Session{
		UserID: user.ID,
		Email:  user.Email,
		IsPro:  user.IsPro,
	}
	if user.Name != nil {
		s.Name = *user.Name
	}
	return s
}

// OwnerID returns the identifier stored on assignments created by this session.
func (s *Session) OwnerID() string {
	if s == nil || s.Email == "" {
		return AnonymousUserID
	}
	return s.Email
}
