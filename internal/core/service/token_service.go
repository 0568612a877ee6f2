package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quizdesk/exam-platform/internal/core/domain"
)

const defaultTokenTTL = 30 * 24 * time.Hour

// Claims is the identity payload embedded in every issued token. The issue
// timestamp makes each token unique per issuance.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed bearer tokens. The signing
// secret is injected once at construction; nothing here reads ambient state
// per call.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// TTL returns the validity window applied to issued tokens.
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue signs a token carrying the given identity and returns it together
// with its absolute expiry instant.
func (ts *TokenService) Issue(email, name string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ts.ttl)

	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify parses the token and checks signature and expiry. Any failure mode
// (tampering, wrong key, expiry, malformed input) collapses into
// domain.ErrInvalidToken so callers never branch on parser internals.
func (ts *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return ts.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
