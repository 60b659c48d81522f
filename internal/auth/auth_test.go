package auth

import (
	"errors"
	"testing"
	"time"

	"studio/internal/domain"
)

func TestSignInWithPassword(t *testing.T) {
	id, err := SignInWithPassword("user@example.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// base64("user@example.com") = dXNlckBleGFtcGxlLmNvbQ==
	if id.UserID != "dXNlckBleGFtcGxlLmNv" {
		t.Fatalf("unexpected user id %q", id.UserID)
	}
	if id.Email != "user@example.com" || id.Provider != ProviderPassword {
		t.Fatalf("unexpected identity %+v", id)
	}

	again, _ := SignInWithPassword("user@example.com", "other")
	if again.UserID != id.UserID {
		t.Fatal("user id should be stable for the same email")
	}
}

func TestSignInWithPasswordRequiresBoth(t *testing.T) {
	for _, tc := range []struct{ email, password string }{
		{"", "secret"},
		{"user@example.com", ""},
		{"   ", "secret"},
	} {
		_, err := SignInWithPassword(tc.email, tc.password)
		if !errors.Is(err, domain.ErrUnauthorized) || !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("SignInWithPassword(%q, %q) = %v", tc.email, tc.password, err)
		}
	}
}

func TestUserIDForShortEmail(t *testing.T) {
	if got := UserIDForEmail("a@b"); got != "YUBi" {
		t.Fatalf("unexpected id %q", got)
	}
}

func TestDemoIdentity(t *testing.T) {
	if DemoIdentity().UserID != "demo-user" {
		t.Fatalf("unexpected demo identity %+v", DemoIdentity())
	}
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	id := Identity{UserID: "u1", Email: "u1@example.com", Provider: ProviderPassword}
	token, expires, err := svc.Generate(id, domain.PlanPro)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected future expiry, got %v", expires)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if claims.Identity() != id || claims.Plan != "PRO" || claims.Subject != "u1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	token, _, err := NewJWTService("one", time.Hour).Generate(DemoIdentity(), domain.PlanFree)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if _, err := NewJWTService("two", time.Hour).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := NewJWTService("one", time.Hour).Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestJWTExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }
	token, _, err := svc.Generate(DemoIdentity(), domain.PlanFree)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	svc.now = time.Now
	if _, err := svc.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}
