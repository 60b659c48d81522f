// Package google verifies Google ID tokens against the issuer's published signing keys.
package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultIssuer = "https://accounts.google.com"
	keyTTL        = time.Hour
)

var (
	ErrUnknownKey    = errors.New("unknown signing key")
	ErrInvalidIssuer = errors.New("invalid issuer")
	ErrNoKeys        = errors.New("no signing keys fetched")
)

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// IDTokenClaims is the subset of the Google ID token this service reads.
type IDTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Locale        string `json:"locale"`
	jwt.RegisteredClaims
}

type Verifier struct {
	issuer     string
	clientID   string
	httpClient *http.Client

	mu      sync.RWMutex
	cache   map[string]*rsa.PublicKey
	fetched time.Time
}

func NewVerifier(issuer, clientID string, httpClient *http.Client) *Verifier {
	issuer = strings.TrimRight(strings.TrimSpace(issuer), "/")
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{
		issuer:     issuer,
		clientID:   clientID,
		httpClient: httpClient,
		cache:      make(map[string]*rsa.PublicKey),
	}
}

// VerifyIDToken checks signature, audience, expiry and issuer of token.
func (v *Verifier) VerifyIDToken(ctx context.Context, token string) (*IDTokenClaims, error) {
	if err := v.ensureKeys(ctx); err != nil {
		return nil, err
	}
	keyfunc := func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if key, ok := v.keyFor(kid); ok {
			return key, nil
		}
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
		if key, ok := v.keyFor(kid); ok {
			return key, nil
		}
		return nil, ErrUnknownKey
	}
	parsed, err := jwt.ParseWithClaims(token, &IDTokenClaims{}, keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*IDTokenClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if !v.issuerMatches(claims.Issuer) {
		return nil, ErrInvalidIssuer
	}
	return claims, nil
}

// Google signs with either the bare host or the https URL as issuer.
func (v *Verifier) issuerMatches(iss string) bool {
	if iss == v.issuer {
		return true
	}
	return strings.TrimPrefix(v.issuer, "https://") == iss
}

func (v *Verifier) ensureKeys(ctx context.Context) error {
	v.mu.RLock()
	fresh := time.Since(v.fetched) < keyTTL && len(v.cache) > 0
	v.mu.RUnlock()
	if fresh {
		return nil
	}
	return v.refresh(ctx)
}

func (v *Verifier) refresh(ctx context.Context) error {
	var discovery struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := v.getJSON(ctx, v.issuer+"/.well-known/openid-configuration", &discovery); err != nil {
		return fmt.Errorf("openid configuration: %w", err)
	}
	var set jwks
	if err := v.getJSON(ctx, discovery.JWKSURI, &set); err != nil {
		return fmt.Errorf("jwks: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey)
	for _, key := range set.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(key)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return ErrNoKeys
	}
	v.mu.Lock()
	v.cache = keys
	v.fetched = time.Now()
	v.mu.Unlock()
	return nil
}

func (v *Verifier) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (v *Verifier) keyFor(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	pk, ok := v.cache[kid]
	return pk, ok
}

func rsaKeyFromJWK(j jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
