// Package credentials keeps provider API keys in the database so operators can
// rotate them without redeploying.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"studio/internal/infra"
	"studio/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
)

type Store struct {
	sql   infra.SQLExecutor
	appID string
	now   func() time.Time
}

func NewStore(sql infra.SQLExecutor, appID string) *Store {
	return &Store{sql: sql, appID: appID, now: time.Now}
}

// GeminiAPIKey returns the stored key, or "" when none was saved.
func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, s.appID, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("load %s token: %w", provider, err)
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	return s.upsert(ctx, ProviderGemini, key, map[string]any{
		"rotated_at": s.now().UTC().Format(time.RFC3339),
	})
}

// ResolveGeminiAPIKey prefers the configured key and falls back to the store.
func (s *Store) ResolveGeminiAPIKey(ctx context.Context, configured string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	return s.GeminiAPIKey(ctx)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, s.appID, provider, token, raw)
	return err
}
