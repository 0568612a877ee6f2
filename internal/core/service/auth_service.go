package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/quizdesk/exam-platform/internal/core/domain"
	"github.com/quizdesk/exam-platform/internal/core/ports"
)

// AuthService implements registration, login, logout and session listing.
type AuthService struct {
	repo     ports.UserRepository
	tokens   *TokenService
	throttle ports.LoginThrottle
	logger   zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens *TokenService, throttle ports.LoginThrottle, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, throttle: throttle, logger: logger}
}

// Register creates an account and signs the caller in: the first session is
// inserted together with the user document, so a token is never handed out
// without a recorded session.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.IssuedToken, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(input.Email, input.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		Name:         input.Name,
		Role:         input.Role,
		CreatedAt:    now,
		Sessions: []domain.Session{{
			Token:     token,
			ExpiresAt: expiresAt,
			UserAgent: input.UserAgent,
			CreatedAt: now,
		}},
	}

	// Duplicate emails are resolved by the store's unique index; concurrent
	// registrations lose with domain.ErrUserExists rather than corrupting state.
	if _, err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", input.Email).Msg("user registered")

	return &ports.IssuedToken{Token: token, ExpiresAt: expiresAt}, nil
}

// Login verifies credentials and records a new session. A missing account and
// a wrong password surface as the same domain.ErrInvalidCredentials so the
// response never reveals which check failed.
func (s *AuthService) Login(ctx context.Context, input ports.LoginInput) (*ports.IssuedToken, error) {
	blocked, err := s.throttle.TooManyFailures(ctx, input.Email, input.IP)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, domain.ErrTooManyLoginAttempts
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		if terr := s.throttle.RecordFailure(ctx, input.Email, input.IP); terr != nil {
			s.logger.Warn().Err(terr).Str("email", input.Email).Msg("failed to record login failure")
		}
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	session := domain.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		UserAgent: input.UserAgent,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendSession(ctx, user.Email, session); err != nil {
		return nil, err
	}

	if terr := s.throttle.Clear(ctx, input.Email, input.IP); terr != nil {
		s.logger.Warn().Err(terr).Str("email", input.Email).Msg("failed to clear login failures")
	}

	return &ports.IssuedToken{Token: token, ExpiresAt: expiresAt}, nil
}

// Logout removes the session whose token matches exactly. Removing a token
// that was already removed is a no-op.
func (s *AuthService) Logout(ctx context.Context, email, token string) error {
	return s.repo.RemoveSession(ctx, email, token)
}

// HasSession reports whether the token is still recorded for the user. A
// deleted account reads as "no session" rather than an error, so stale
// cookies for removed users degrade to plain unauthenticated requests.
func (s *AuthService) HasSession(ctx context.Context, email, token string) (bool, error) {
	live, err := s.repo.HasSession(ctx, email, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return live, nil
}

// Sessions returns the user's sessions with expired entries filtered out.
// Expired records stay in storage until the background sweep removes them.
func (s *AuthService) Sessions(ctx context.Context, email string) ([]domain.Session, error) {
	stored, err := s.repo.ListSessions(ctx, email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	live := make([]domain.Session, 0, len(stored))
	for _, sess := range stored {
		if !sess.Expired(now) {
			live = append(live, sess)
		}
	}
	return live, nil
}
