package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func TestExtractMarker(t *testing.T) {
	query := "--sql 0b6f1f8e-1c2d-4e5f-8a9b-0c1d2e3f4a5b\nselect 1;\n"
	marker, body, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker error: %v", err)
	}
	if marker != "0b6f1f8e-1c2d-4e5f-8a9b-0c1d2e3f4a5b" {
		t.Fatalf("unexpected marker %q", marker)
	}
	if body != "select 1;" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestExtractMarkerRejectsUnmarkedQueries(t *testing.T) {
	for _, q := range []string{"select 1;", "--sql not-a-uuid\nselect 1;", "--sql 0B6F1F8E-1C2D-4E5F-8A9B-0C1D2E3F4A5B\nselect 1;"} {
		if _, _, err := extractMarker(q); !errors.Is(err, ErrMissingMarker) {
			t.Fatalf("extractMarker(%q) expected ErrMissingMarker, got %v", q, err)
		}
	}
	if _, _, err := extractMarker("   "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("load profile: %w", pgx.ErrNoRows)) {
		t.Fatal("wrapped ErrNoRows should be detected")
	}
	if IsNoRows(errors.New("boom")) {
		t.Fatal("unrelated error should not be reported as no rows")
	}
}

type fakeDB struct {
	execs  []string
	tag    pgconn.CommandTag
	err    error
	scanFn func(dest ...any) error
}

func (f *fakeDB) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, query)
	return f.tag, f.err
}

func (f *fakeDB) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	f.execs = append(f.execs, query)
	return rowFunc(f.scanFn)
}

func (f *fakeDB) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	f.execs = append(f.execs, query)
	return nil, f.err
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

const markedUpdate = "--sql 0b6f1f8e-1c2d-4e5f-8a9b-0c1d2e3f4a5b\nupdate profiles set plan = $1;"

func TestRunnerStripsMarker(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 2")}
	var buf bytes.Buffer
	r := newSQLRunner(db, zerolog.New(&buf).Level(zerolog.DebugLevel))

	tag, err := r.Exec(context.Background(), markedUpdate, "PRO")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if tag.RowsAffected() != 2 {
		t.Fatalf("unexpected rows %d", tag.RowsAffected())
	}
	if len(db.execs) != 1 || db.execs[0] != "update profiles set plan = $1;" {
		t.Fatalf("unexpected statement sent: %q", db.execs)
	}
	if !strings.Contains(buf.String(), `"sql":"0b6f1f8e-1c2d-4e5f-8a9b-0c1d2e3f4a5b"`) {
		t.Fatalf("marker not logged: %s", buf.String())
	}
}

func TestRunnerRejectsUnmarkedBeforeSending(t *testing.T) {
	db := &fakeDB{}
	r := newSQLRunner(db, zerolog.Nop())
	if _, err := r.Exec(context.Background(), "delete from profiles;"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("expected ErrMissingMarker, got %v", err)
	}
	if err := r.QueryRow(context.Background(), "select 1;").Scan(); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("expected ErrMissingMarker from row, got %v", err)
	}
	if _, err := r.Query(context.Background(), "select 1;"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("expected ErrMissingMarker from query, got %v", err)
	}
	if len(db.execs) != 0 {
		t.Fatalf("unmarked statements reached the database: %q", db.execs)
	}
}

func TestRunnerLogsErrorsButNotNoRows(t *testing.T) {
	var buf bytes.Buffer
	db := &fakeDB{scanFn: func(...any) error { return pgx.ErrNoRows }}
	r := newSQLRunner(db, zerolog.New(&buf).Level(zerolog.InfoLevel))
	if err := r.QueryRow(context.Background(), markedUpdate).Scan(); !IsNoRows(err) {
		t.Fatalf("expected no rows, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("no rows should not log at info: %s", buf.String())
	}

	db.err = errors.New("connection reset")
	if _, err := r.Exec(context.Background(), markedUpdate); err == nil {
		t.Fatal("expected exec error")
	}
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "connection reset") {
		t.Fatalf("expected error log, got %s", buf.String())
	}
}
