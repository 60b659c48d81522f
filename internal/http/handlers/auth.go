package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"studio/internal/auth"
	"studio/internal/domain"
	"studio/internal/middleware"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Demo     bool   `json:"demo"`
}

type googleSignInRequest struct {
	IDToken string `json:"id_token"`
}

type signInResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Profile   profileDTO `json:"profile"`
}

func (a *App) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}
	id := auth.DemoIdentity()
	if !req.Demo {
		var err error
		id, err = auth.SignInWithPassword(req.Email, req.Password)
		if err != nil {
			a.fail(w, r, err)
			return
		}
	}
	a.startSession(w, r, id)
}

// SignInGoogle exchanges a Google ID token for a session token.
func (a *App) SignInGoogle(w http.ResponseWriter, r *http.Request) {
	if a.Google == nil {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	var req googleSignInRequest
	if err := a.decode(w, r, &req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		a.fail(w, r, fmt.Errorf("%w: id_token required", domain.ErrInvalidInput))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	claims, err := a.Google.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: google token: %w", domain.ErrUnauthorized, err))
		return
	}
	a.startSession(w, r, auth.Identity{UserID: claims.Subject, Email: claims.Email, Provider: auth.ProviderGoogle})
}

func (a *App) startSession(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	s, err := a.Sessions.SignIn(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	token, expires, err := a.JWT.Generate(id, s.Plan())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log(r).Info().Str("user_id", id.UserID).Str("provider", id.Provider).Msg("signed in")
	a.json(w, http.StatusOK, signInResponse{Token: token, ExpiresAt: expires, Profile: toProfileDTO(s)})
}

// SignOut ends the live session. Signing out twice is not an error.
func (a *App) SignOut(w http.ResponseWriter, r *http.Request) {
	if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
		_ = a.Sessions.SignOut(userID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toProfileDTO(s))
}
