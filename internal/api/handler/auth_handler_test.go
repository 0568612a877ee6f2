package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/quizdesk/exam-platform/internal/api/middleware"
	"github.com/quizdesk/exam-platform/internal/core/domain"
	"github.com/quizdesk/exam-platform/internal/core/ports"
	"github.com/quizdesk/exam-platform/internal/core/service"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, input ports.RegisterInput) (*ports.IssuedToken, error)
	loginFn    func(ctx context.Context, input ports.LoginInput) (*ports.IssuedToken, error)
	logoutFn   func(ctx context.Context, email, token string) error
	sessionsFn func(ctx context.Context, email string) ([]domain.Session, error)
}

func (s *stubAuthService) HasSession(context.Context, string, string) (bool, error) {
	return true, nil
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.IssuedToken, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, input ports.LoginInput) (*ports.IssuedToken, error) {
	return s.loginFn(ctx, input)
}

func (s *stubAuthService) Logout(ctx context.Context, email, token string) error {
	return s.logoutFn(ctx, email, token)
}

func (s *stubAuthService) Sessions(ctx context.Context, email string) ([]domain.Session, error) {
	return s.sessionsFn(ctx, email)
}

func newTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func tokenCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.TokenCookie {
			return cookie
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	expiresAt := time.Now().UTC().Add(30 * 24 * time.Hour)
	stub := &stubAuthService{
		registerFn: func(_ context.Context, input ports.RegisterInput) (*ports.IssuedToken, error) {
			if input.Email != "a@x.com" || input.Name != "Ann" || input.Role != "teacher" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &ports.IssuedToken{Token: "signed-token", ExpiresAt: expiresAt}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/api/users/register",
		`{"email":"a@x.com","password":"secret1","name":"Ann","role":"teacher"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	cookie := tokenCookie(t, rec)
	if cookie == nil {
		t.Fatalf("token cookie not set")
	}
	if cookie.Value != "signed-token" || !cookie.HttpOnly {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
	if cookie.Expires.Unix() != expiresAt.Unix() {
		t.Fatalf("cookie expiry %v does not match token expiry %v", cookie.Expires, expiresAt)
	}
}

func TestAuthHandler_Register_FieldValidation(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.IssuedToken, error) {
			t.Fatalf("service must not be called on invalid input")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/api/users/register",
		`{"email":"not-an-email","password":"short","name":"An","role":""}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Error map[string]string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, field := range []string{"email", "password", "name", "role"} {
		if resp.Error[field] == "" {
			t.Fatalf("missing message for field %q: %+v", field, resp.Error)
		}
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.IssuedToken, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/api/users/register",
		`{"email":"a@x.com","password":"secret1","name":"Ann","role":"teacher"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "User already exists") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if tokenCookie(t, rec) != nil {
		t.Fatalf("cookie must not be set on conflict")
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	expiresAt := time.Now().UTC().Add(30 * 24 * time.Hour)
	stub := &stubAuthService{
		loginFn: func(_ context.Context, input ports.LoginInput) (*ports.IssuedToken, error) {
			if input.Email != "a@x.com" || input.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &ports.IssuedToken{Token: "signed-token", ExpiresAt: expiresAt}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/api/users/login",
		`{"email":"a@x.com","password":"secret1"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cookie := tokenCookie(t, rec); cookie == nil || cookie.Value != "signed-token" {
		t.Fatalf("token cookie not set")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, ports.LoginInput) (*ports.IssuedToken, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/api/users/login",
		`{"email":"a@x.com","password":"wrong-1"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Login_Throttled(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, ports.LoginInput) (*ports.IssuedToken, error) {
			return nil, domain.ErrTooManyLoginAttempts
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/api/users/login",
		`{"email":"a@x.com","password":"secret1"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func authClaims(email, name string, issued time.Time) *service.Claims {
	return &service.Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(30 * 24 * time.Hour)),
		},
	}
}

func TestAuthHandler_Session(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, rec := newTestContext(t, http.MethodGet, "/api/users/session", "")
	c.Set(middleware.ClaimsKey, authClaims("a@x.com", "Ann", time.Now().UTC()))

	if err := h.Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Session struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Session.Email != "a@x.com" || resp.Session.Name != "Ann" {
		t.Fatalf("unexpected session payload: %+v", resp.Session)
	}
}

func TestAuthHandler_Session_MissingClaims(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, _ := newTestContext(t, http.MethodGet, "/api/users/session", "")
	err := h.Session(c)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without guard claims, got %v", err)
	}
}

func TestAuthHandler_Sessions(t *testing.T) {
	now := time.Now().UTC()
	stub := &stubAuthService{
		sessionsFn: func(_ context.Context, email string) ([]domain.Session, error) {
			if email != "a@x.com" {
				t.Fatalf("unexpected email: %s", email)
			}
			return []domain.Session{
				{Token: "current-token", ExpiresAt: now.Add(time.Hour), UserAgent: "laptop", CreatedAt: now},
				{Token: "other-token", ExpiresAt: now.Add(time.Hour), UserAgent: "phone", CreatedAt: now},
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodGet, "/api/users/sessions", "")
	c.Set(middleware.ClaimsKey, authClaims("a@x.com", "Ann", now))
	c.Set(middleware.TokenKey, "current-token")

	if err := h.Sessions(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Sessions []struct {
			UserAgent string `json:"user_agent"`
			Current   bool   `json:"current"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(resp.Sessions))
	}
	if !resp.Sessions[0].Current || resp.Sessions[1].Current {
		t.Fatalf("current flag misassigned: %+v", resp.Sessions)
	}
	if strings.Contains(rec.Body.String(), "current-token") {
		t.Fatalf("raw token leaked into session listing")
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	revoked := false
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, email, token string) error {
			if email != "a@x.com" || token != "signed-token" {
				t.Fatalf("unexpected args: %s %s", email, token)
			}
			revoked = true
			return nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodDelete, "/api/users/logout", "")
	c.Set(middleware.ClaimsKey, authClaims("a@x.com", "Ann", time.Now().UTC()))
	c.Set(middleware.TokenKey, "signed-token")

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !revoked {
		t.Fatalf("logout did not reach the service")
	}

	cookie := tokenCookie(t, rec)
	if cookie == nil {
		t.Fatalf("clearing cookie not set")
	}
	if cookie.Value != "" || cookie.MaxAge != -1 {
		t.Fatalf("cookie not cleared: %+v", cookie)
	}
}
