package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quizdesk/exam-platform/internal/api/metrics"
	"github.com/quizdesk/exam-platform/internal/core/service"
)

// TokenCookie is the name of the cookie carrying the signed bearer token.
const TokenCookie = "token"

// Echo context keys populated by RequireAuth.
const (
	ClaimsKey = "authClaims"
	TokenKey  = "authToken"
)

// TokenVerifier is the slice of the token service the route guard needs.
type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

// SessionChecker reports whether a token is still recorded in the session
// registry. Signature and expiry alone are not enough: logout revokes by
// removing the session record, and the guard must honor that removal while
// the token is still cryptographically valid.
type SessionChecker interface {
	HasSession(ctx context.Context, email, token string) (bool, error)
}

// RequireAuth admits only requests presenting a cookie-borne token that
// verifies as signed, non-expired, and still registered, and injects the
// decoded claims and the raw token into the echo context for the handler.
func RequireAuth(tokens TokenVerifier, sessions SessionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(TokenCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "You must be logged in to access this page. Please sign in to continue.")
			}

			claims, err := tokens.Verify(cookie.Value)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "You must be logged in to access this page. Please sign in to continue.")
			}

			live, err := sessions.HasSession(c.Request().Context(), claims.Email, cookie.Value)
			if err != nil {
				return err
			}
			if !live {
				metrics.TokenVerificationsTotal.WithLabelValues("revoked").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "You must be logged in to access this page. Please sign in to continue.")
			}
			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()

			c.Set(ClaimsKey, claims)
			c.Set(TokenKey, cookie.Value)

			return next(c)
		}
	}
}

// GuestOnly rejects callers who are already authenticated. A missing,
// malformed, expired, or revoked cookie counts as a guest and is admitted.
func GuestOnly(tokens TokenVerifier, sessions SessionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(TokenCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			claims, err := tokens.Verify(cookie.Value)
			if err != nil {
				return next(c)
			}

			live, err := sessions.HasSession(c.Request().Context(), claims.Email, cookie.Value)
			if err != nil {
				return err
			}
			if live {
				return echo.NewHTTPError(http.StatusForbidden, "You do not have permission to access this area. This section is for guests only. Please log out to continue.")
			}

			return next(c)
		}
	}
}

// ContextClaims extracts the claims injected by RequireAuth. A nil result
// means the guard did not run, which is a routing bug, and handlers treat it
// as an unauthenticated request.
func ContextClaims(c echo.Context) *service.Claims {
	claims, _ := c.Get(ClaimsKey).(*service.Claims)
	return claims
}

// ContextToken extracts the raw bearer token injected by RequireAuth.
func ContextToken(c echo.Context) string {
	token, _ := c.Get(TokenKey).(string)
	return token
}
