package domain

import "time"

// User models a registered account. Sessions are embedded in the user
// document: a session never exists without its parent user, and the slice
// order is issuance order.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	Sessions     []Session `json:"-"`
}

// Session records one issued login token, kept for device audit and
// revocation. The token value is unique per issuance because the signed
// payload carries its issue timestamp.
type Session struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session's validity window has passed at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
