package ports

import (
	"context"
	"time"

	"github.com/quizdesk/exam-platform/internal/core/domain"
)

// RegisterInput carries the validated registration payload plus request
// metadata captured by the transport layer.
type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	Role      string
	UserAgent string
}

// LoginInput carries the validated login payload plus request metadata.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IP        string
}

// IssuedToken is the result of a successful registration or login: the
// signed bearer token and its absolute expiry instant.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*IssuedToken, error)
	Login(ctx context.Context, input LoginInput) (*IssuedToken, error)
	// Logout revokes the session holding the exact token. Idempotent.
	Logout(ctx context.Context, email, token string) error
	// HasSession reports whether the token is still recorded, i.e. not yet
	// revoked by logout.
	HasSession(ctx context.Context, email, token string) (bool, error)
	// Sessions lists the user's live (non-expired) sessions in issuance order.
	Sessions(ctx context.Context, email string) ([]domain.Session, error)
}
