package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quizdesk/exam-platform/internal/api/metrics"
	"github.com/quizdesk/exam-platform/internal/api/middleware"
	"github.com/quizdesk/exam-platform/internal/core/domain"
	"github.com/quizdesk/exam-platform/internal/core/ports"
)

// AuthHandler handles the /api/users endpoints.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account and signs the caller in.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/users/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		var fields FieldErrors
		if errors.As(err, &fields) {
			return c.JSON(http.StatusBadRequest, fieldErrorResponse{Error: fields})
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	issued, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Role:      req.Role,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "User already exists"})
		}
		return err
	}

	metrics.RegistrationsTotal.Inc()
	setTokenCookie(c, issued.Token, issued.ExpiresAt)

	return c.JSON(http.StatusCreated, messageResponse{Message: "Your account has been successfully created!"})
}

// Login authenticates a user and sets the token cookie.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		var fields FieldErrors
		if errors.As(err, &fields) {
			return c.JSON(http.StatusBadRequest, fieldErrorResponse{Error: fields})
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	issued, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Invalid email or password"})
		case errors.Is(err, domain.ErrTooManyLoginAttempts):
			metrics.LoginsTotal.WithLabelValues("throttled").Inc()
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "Too many failed login attempts. Try again later."})
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	setTokenCookie(c, issued.Token, issued.ExpiresAt)

	return c.JSON(http.StatusOK, messageResponse{Message: "Login successful"})
}

// Session returns the verified identity claims of the presented cookie.
//
// @Summary      Inspect the current session
// @Tags         users
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/users/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	claims := middleware.ContextClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	return c.JSON(http.StatusOK, sessionResponse{Session: sessionClaims{
		Email:     claims.Email,
		Name:      claims.Name,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}})
}

// Sessions lists the caller's live sessions for device management.
//
// @Summary      List active sessions
// @Tags         users
// @Produce      json
// @Success      200  {object}  listSessionsResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/users/sessions [get]
func (h *AuthHandler) Sessions(c echo.Context) error {
	claims := middleware.ContextClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	sessions, err := h.authService.Sessions(c.Request().Context(), claims.Email)
	if err != nil {
		return err
	}

	current := middleware.ContextToken(c)
	items := make([]sessionItem, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, sessionItem{
			UserAgent: s.UserAgent,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
			Current:   s.Token == current,
		})
	}

	return c.JSON(http.StatusOK, listSessionsResponse{Sessions: items})
}

// Logout revokes the presented session and clears the token cookie.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/users/logout [delete]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims := middleware.ContextClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	if err := h.authService.Logout(c.Request().Context(), claims.Email, middleware.ContextToken(c)); err != nil {
		return err
	}

	metrics.SessionsRevokedTotal.Inc()
	clearTokenCookie(c)

	return c.JSON(http.StatusOK, messageResponse{Message: "You have been logged out successfully."})
}

func setTokenCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Expires:  expiresAt,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}
