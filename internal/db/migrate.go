// Package db holds the schema migrations and applies them over database/sql.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one embedded schema step.
type Migration struct {
	Version string
	SQL     string
}

// Migrations returns the embedded migrations ordered by version.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		body, err := fs.ReadFile(migrationFS, "migrations/"+e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Version: strings.TrimSuffix(e.Name(), ".sql"), SQL: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Apply runs every migration not yet recorded in schema_migrations, each in its own transaction.
func Apply(ctx context.Context, conn *sql.DB, logger zerolog.Logger) (int, error) {
	migrations, err := Migrations()
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `create table if not exists schema_migrations (
    version text primary key,
    applied_at timestamptz not null default now()
)`); err != nil {
		return 0, describe("create schema_migrations", err)
	}

	applied := 0
	for _, m := range migrations {
		done, err := apply(ctx, conn, m)
		if err != nil {
			return applied, err
		}
		if done {
			applied++
			logger.Info().Str("version", m.Version).Msg("migration applied")
		} else {
			logger.Debug().Str("version", m.Version).Msg("migration already applied")
		}
	}
	return applied, nil
}

func apply(ctx context.Context, conn *sql.DB, m Migration) (bool, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, describe("begin "+m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `select exists(select 1 from schema_migrations where version = $1)`, m.Version).Scan(&exists); err != nil {
		return false, describe("check "+m.Version, err)
	}
	if exists {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return false, describe("apply "+m.Version, err)
	}
	if _, err := tx.ExecContext(ctx, `insert into schema_migrations (version) values ($1)`, m.Version); err != nil {
		return false, describe("record "+m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return false, describe("commit "+m.Version, err)
	}
	return true, nil
}

func describe(step string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %s (sqlstate %s): %w", step, pqErr.Message, pqErr.Code, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}
