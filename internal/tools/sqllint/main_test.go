package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestInlineQueriesCarryUniqueMarkers(t *testing.T) {
	violations, err := lintTargets([]string{"../../sqlinline"})
	if err != nil {
		t.Fatalf("lint sqlinline: %v", err)
	}
	var buf bytes.Buffer
	if report(&buf, violations) {
		t.Fatalf("unexpected violations:\n%s", buf.String())
	}
}

func TestMissingAndDuplicateMarkers(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package q\n\nconst QOne = `--sql 11111111-2222-3333-4444-555555555555\nselect 1;`\n\nconst QBare = `select 2;`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QTwo = `--sql 11111111-2222-3333-4444-555555555555\nupdate t set x = 1;`\n\nconst Label = \"hello\"\n")
	writeGo(t, dir, "b_test.go", "package q\n\nconst QTest = `select 3;`\n")

	violations, err := lintTargets([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", violations)
	}
	if violations[0].name != "QBare" || !strings.Contains(violations[0].message, "missing") {
		t.Fatalf("unexpected first violation %+v", violations[0])
	}
	if violations[1].name != "QTwo" || !strings.Contains(violations[1].message, "QOne") {
		t.Fatalf("unexpected second violation %+v", violations[1])
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n  --sql abc \nselect 1"); got != "--sql abc" {
		t.Fatalf("firstLine = %q", got)
	}
}
