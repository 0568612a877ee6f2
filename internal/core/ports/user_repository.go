package ports

import (
	"context"
	"time"

	"github.com/quizdesk/exam-platform/internal/core/domain"
)

// UserRepository defines the persistence contract for accounts and their
// embedded sessions. Email is the natural key for every session operation
// because the token claims carry it.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrUserExists when the email
	// is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// FindByEmail returns the user with the given email, or
	// domain.ErrUserNotFound. Matching is a case-sensitive exact comparison.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// AppendSession adds a session to the user's session list.
	AppendSession(ctx context.Context, email string, session domain.Session) error

	// RemoveSession deletes the session whose token matches exactly.
	// Removing an absent token is a no-op, not an error.
	RemoveSession(ctx context.Context, email, token string) error

	// HasSession reports whether the exact token is currently recorded for
	// the user.
	HasSession(ctx context.Context, email, token string) (bool, error)

	// ListSessions returns every stored session for the user in issuance
	// order, including ones already past expiry.
	ListSessions(ctx context.Context, email string) ([]domain.Session, error)

	// DeleteExpiredSessions removes all sessions across all users whose
	// expiry precedes now, returning the number of users touched.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
