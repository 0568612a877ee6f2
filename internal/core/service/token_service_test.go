package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quizdesk/exam-platform/internal/core/domain"
)

func TestTokenService_RoundTrip(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)

	token, expiresAt, err := ts.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}

	claims, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Email != "ann@example.com" || claims.Name != "Ann" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	until := time.Until(expiresAt)
	if until < 59*time.Minute || until > time.Hour {
		t.Fatalf("unexpected expiry window: %v", until)
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	ts := NewTokenService("secret", 0)
	if ts.TTL() != 30*24*time.Hour {
		t.Fatalf("expected 30-day default TTL, got %v", ts.TTL())
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, _, err := issuer.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_Tampered(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)

	token, _, err := ts.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ts.Verify(tampered); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ts.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenService_Expired(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)

	expired := signedToken(t, "secret", jwt.SigningMethodHS256, Claims{
		Email: "ann@example.com",
		Name:  "Ann",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	if _, err := ts.Verify(expired); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenService_RejectsForeignAlgorithm(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)

	// Signed with the right secret but the wrong HMAC variant; the verifier
	// pins HS256 rather than trusting the token header.
	foreign := signedToken(t, "secret", jwt.SigningMethodHS384, Claims{
		Email: "ann@example.com",
		Name:  "Ann",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := ts.Verify(foreign); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS384 token, got %v", err)
	}
}

func TestTokenService_UniquePerIssuance(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)

	first, _, err := ts.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// iat has second resolution, so force a later issue timestamp.
	time.Sleep(1100 * time.Millisecond)

	second, _, err := ts.Issue("ann@example.com", "Ann")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct tokens across issuances")
	}
}

func signedToken(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return token
}
