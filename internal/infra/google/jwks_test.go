package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type issuerServer struct {
	*httptest.Server
	key       *rsa.PrivateKey
	jwksCalls int
}

func newIssuerServer(t *testing.T) *issuerServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	s := &issuerServer{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"jwks_uri": s.URL + "/certs"})
	})
	mux.HandleFunc("/certs", func(w http.ResponseWriter, r *http.Request) {
		s.jwksCalls++
		_ = json.NewEncoder(w).Encode(jwks{Keys: []jwk{{
			Kid: "k1",
			Kty: "RSA",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *issuerServer) sign(t *testing.T, kid string, claims IDTokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(s.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func validClaims(issuer string) IDTokenClaims {
	now := time.Now()
	return IDTokenClaims{
		Email:         "user@example.com",
		EmailVerified: true,
		Name:          "User",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "google-sub-1",
			Audience:  jwt.ClaimStrings{"client-1"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestVerifyIDToken(t *testing.T) {
	srv := newIssuerServer(t)
	v := NewVerifier(srv.URL, "client-1", srv.Client())

	claims, err := v.VerifyIDToken(context.Background(), srv.sign(t, "k1", validClaims(srv.URL)))
	if err != nil {
		t.Fatalf("VerifyIDToken error: %v", err)
	}
	if claims.Subject != "google-sub-1" || claims.Email != "user@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := v.VerifyIDToken(context.Background(), srv.sign(t, "k1", validClaims(srv.URL))); err != nil {
		t.Fatalf("second verify error: %v", err)
	}
	if srv.jwksCalls != 1 {
		t.Fatalf("expected cached keys, fetched %d times", srv.jwksCalls)
	}
}

func TestVerifyIDTokenRejects(t *testing.T) {
	srv := newIssuerServer(t)
	v := NewVerifier(srv.URL, "client-1", srv.Client())

	wrongAud := validClaims(srv.URL)
	wrongAud.Audience = jwt.ClaimStrings{"someone-else"}
	if _, err := v.VerifyIDToken(context.Background(), srv.sign(t, "k1", wrongAud)); !errors.Is(err, jwt.ErrTokenInvalidAudience) {
		t.Fatalf("expected audience error, got %v", err)
	}

	wrongIss := validClaims("https://evil.example.com")
	if _, err := v.VerifyIDToken(context.Background(), srv.sign(t, "k1", wrongIss)); !errors.Is(err, ErrInvalidIssuer) {
		t.Fatalf("expected issuer error, got %v", err)
	}

	expired := validClaims(srv.URL)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	if _, err := v.VerifyIDToken(context.Background(), srv.sign(t, "k1", expired)); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expiry error, got %v", err)
	}

	if _, err := v.VerifyIDToken(context.Background(), srv.sign(t, "missing", validClaims(srv.URL))); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestIssuerMatchesBareHost(t *testing.T) {
	v := NewVerifier("", "client", nil)
	if !v.issuerMatches("accounts.google.com") || !v.issuerMatches("https://accounts.google.com") {
		t.Fatal("expected both google issuer forms to match")
	}
	if v.issuerMatches("https://example.com") {
		t.Fatal("unexpected issuer match")
	}
}
