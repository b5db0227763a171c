package auth

import (
	"time"
)

// Session is the authenticated user context passed explicitly into every
// storage operation. A nil session means local only mode.
type Session struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Session) Valid() bool {
	if s == nil || s.UserID == "" || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}

func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.UserID
}
