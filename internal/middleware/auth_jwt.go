package middleware

import (
	"context"
	"net/http"
	"strings"

	"studio/internal/auth"
	"studio/internal/i18n"
)

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

type claimsKey struct{}

// AuthJWT rejects requests without a valid bearer token. Websocket clients
// that cannot set headers may pass the token as the "token" query parameter.
func AuthJWT(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, r, http.StatusUnauthorized, i18n.Unauthorized)
				return
			}
			claims, err := v.Validate(token)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, i18n.Unauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

func UserIDFromContext(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.UserID
	}
	return ""
}
