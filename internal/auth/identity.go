// Package auth resolves who is signing in and issues session tokens.
package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"studio/internal/domain"
)

const (
	ProviderPassword = "password"
	ProviderDemo     = "demo"
	ProviderGoogle   = "google"

	DemoUserID = "demo-user"

	userIDLength = 20
)

// ErrMissingCredentials is the user-facing reason a password sign in was refused.
var ErrMissingCredentials = errors.New("Please enter both email and password.")

// Identity is a resolved account owner.
type Identity struct {
	UserID   string
	Email    string
	Provider string
}

// SignInWithPassword accepts any non-empty credentials and derives a stable user id from the email.
func SignInWithPassword(email, password string) (Identity, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Identity{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrMissingCredentials)
	}
	email = strings.TrimSpace(email)
	return Identity{UserID: UserIDForEmail(email), Email: email, Provider: ProviderPassword}, nil
}

// UserIDForEmail returns the first 20 characters of the base64 encoded email.
func UserIDForEmail(email string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(email))
	if len(encoded) > userIDLength {
		return encoded[:userIDLength]
	}
	return encoded
}

func DemoIdentity() Identity {
	return Identity{UserID: DemoUserID, Provider: ProviderDemo}
}
