package handler

import (
	"errors"
	"testing"
)

func TestValidator_FieldErrors(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&registerRequest{
		Email:    "not-an-email",
		Password: "12345",
		Name:     "Jo",
		Role:     "t",
	})
	if err == nil {
		t.Fatalf("expected validation failure")
	}

	var fields FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if fields["email"] != "email must be a valid email" {
		t.Fatalf("unexpected email message: %q", fields["email"])
	}
	if fields["password"] != "password must be at least 6 characters" {
		t.Fatalf("unexpected password message: %q", fields["password"])
	}
	if fields["name"] != "name must be at least 3 characters" {
		t.Fatalf("unexpected name message: %q", fields["name"])
	}
	if fields["role"] != "role must be at least 3 characters" {
		t.Fatalf("unexpected role message: %q", fields["role"])
	}
}

func TestValidator_ValidInput(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&loginRequest{Email: "a@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}
