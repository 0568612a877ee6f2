package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// fieldErrorResponse is the 400 envelope for schema validation failures,
// carrying one message per offending field.
type fieldErrorResponse struct {
	Error FieldErrors `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request types ---
// Schemas live next to the endpoint contract they validate; the validate
// tags are the single source of the input shape rules.

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"     validate:"required,min=3"`
	Role     string `json:"role"     validate:"required,min=3"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// --- Response types ---

type sessionClaims struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionResponse struct {
	Session sessionClaims `json:"session"`
}

// sessionItem is one entry of the device-management listing. The raw token is
// never echoed back; Current marks the session the caller presented.
type sessionItem struct {
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Current   bool      `json:"current"`
}

type listSessionsResponse struct {
	Sessions []sessionItem `json:"sessions"`
}
