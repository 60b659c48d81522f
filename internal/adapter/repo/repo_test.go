package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"studio/internal/domain"
	"studio/internal/sqlinline"
)

type stubExecutor struct {
	row   pgx.Row
	rows  pgx.Rows
	err   error
	tag   pgconn.CommandTag
	query string
	args  []any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.query = query
	s.args = args
	return s.tag, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.query = query
	s.args = args
	return s.row
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.query = query
	s.args = args
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

type stubRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return r.err }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, errors.New("not supported") }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = row[i].(string)
		case *time.Time:
			*ptr = row[i].(time.Time)
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}

func TestProfileGetNotFound(t *testing.T) {
	exec := &stubExecutor{row: rowFunc(func(dest ...any) error { return pgx.ErrNoRows })}
	repo := NewProfileRepository(exec, "app")
	if _, err := repo.Get(context.Background(), "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if exec.query != sqlinline.QSelectProfile {
		t.Fatal("expected select profile query")
	}
	if exec.args[0] != "app" || exec.args[1] != "u1" {
		t.Fatalf("unexpected args %v", exec.args)
	}
}

func TestProfileGetScans(t *testing.T) {
	now := time.Now()
	exec := &stubExecutor{row: rowFunc(func(dest ...any) error {
		*dest[0].(*string) = "u1"
		*dest[1].(*string) = "PRO"
		*dest[2].(*int) = 7
		*dest[3].(*int) = 0
		*dest[4].(*time.Time) = now
		*dest[5].(*time.Time) = now
		*dest[6].(*time.Time) = now
		return nil
	})}
	repo := NewProfileRepository(exec, "app")
	p, err := repo.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if p.Plan != domain.PlanPro || p.TokensUsedThisMonth != 7 {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.TokensLimit != 50 {
		t.Fatalf("expected missing limit filled from plan, got %d", p.TokensLimit)
	}
}

func TestProfileMergePassesNullsForUnsetFields(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewProfileRepository(exec, "app")
	used := 3
	if err := repo.Merge(context.Background(), "u1", domain.ProfilePatch{TokensUsedThisMonth: &used}); err != nil {
		t.Fatalf("Merge error: %v", err)
	}
	if exec.query != sqlinline.QMergeProfile {
		t.Fatal("expected merge query")
	}
	if len(exec.args) != 7 {
		t.Fatalf("expected 7 args, got %d", len(exec.args))
	}
	if plan, ok := exec.args[2].(*string); !ok || plan != nil {
		t.Fatalf("expected nil plan arg, got %#v", exec.args[2])
	}
	if got, ok := exec.args[3].(*int); !ok || got == nil || *got != 3 {
		t.Fatalf("expected used arg 3, got %#v", exec.args[3])
	}
	if limit, ok := exec.args[4].(*int); !ok || limit != nil {
		t.Fatalf("expected nil limit arg, got %#v", exec.args[4])
	}
}

func TestProfileMergeWrapsErrors(t *testing.T) {
	exec := &stubExecutor{err: errors.New("connection reset")}
	repo := NewProfileRepository(exec, "app")
	plan := domain.PlanPro
	err := repo.Merge(context.Background(), "u1", domain.ProfilePatch{Plan: &plan})
	if err == nil || err.Error() != "merge profile: connection reset" {
		t.Fatalf("unexpected error %v", err)
	}
	if p, ok := exec.args[2].(*string); !ok || p == nil || *p != "PRO" {
		t.Fatalf("expected plan arg PRO, got %#v", exec.args[2])
	}
}

func TestHistoryAppendArgs(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewHistoryRepository(exec, "app")
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	err := repo.Append(context.Background(), domain.HistoryEntry{
		ID: "0b6f1f8e-1c2d-4e5f-8a9b-0c1d2e3f4a5b", UserID: "u1", Prompt: "p", GeneratedText: "g",
		Type: domain.EntrySummary, Date: date, Plan: domain.PlanFree,
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if exec.args[1] != "app" || exec.args[5] != "summary" || exec.args[6] != "FREE" {
		t.Fatalf("unexpected args %v", exec.args)
	}
}

func TestHistoryList(t *testing.T) {
	newer := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	exec := &stubExecutor{rows: &stubRows{data: [][]any{
		{"b", "u1", "p2", "g2", "generation", "PRO", newer},
		{"a", "u1", "p1", "g1", "summary", "FREE", older},
	}}}
	repo := NewHistoryRepository(exec, "app")
	entries, err := repo.List(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "b" || entries[0].Type != domain.EntryGeneration || entries[1].Plan != domain.PlanFree {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if exec.args[2] != 10 {
		t.Fatalf("expected limit arg 10, got %v", exec.args[2])
	}
}

func TestHistoryListRowsError(t *testing.T) {
	exec := &stubExecutor{rows: &stubRows{err: errors.New("stream broken")}}
	repo := NewHistoryRepository(exec, "app")
	if _, err := repo.List(context.Background(), "u1", 10); err == nil {
		t.Fatal("expected iteration error")
	}
}

func TestUsageResetReportsRows(t *testing.T) {
	exec := &stubExecutor{tag: pgconn.NewCommandTag("UPDATE 3")}
	repo := NewUsageRepository(exec, "app")
	n, err := repo.ResetUsageBefore(context.Background(), time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResetUsageBefore error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
}

func TestPaymentRecordArgs(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewPaymentRepository(exec, "app")
	err := repo.Record(context.Background(), domain.Payment{ID: "id", UserID: "u1", Plan: domain.PlanPro, Method: "card", SubtotalCents: 999, TaxCents: 50, TotalCents: 1049})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if exec.query != sqlinline.QInsertPayment || exec.args[3] != "PRO" || exec.args[7] != int64(1049) {
		t.Fatalf("unexpected args %v", exec.args)
	}
}

func TestProfileAddTokensUsed(t *testing.T) {
	cases := []struct {
		name    string
		delta   int
		row     rowFunc
		used    int
		limit   int
		wantErr error
	}{
		{
			name:  "increment",
			delta: 1,
			row: func(dest ...any) error {
				*dest[0].(*int) = 1
				*dest[1].(*int) = 5
				return nil
			},
			used:  1,
			limit: 5,
		},
		{name: "limit guard", delta: 1, row: func(dest ...any) error { return pgx.ErrNoRows }, wantErr: domain.ErrQuotaExceeded},
		{name: "missing on decrement", delta: -1, row: func(dest ...any) error { return pgx.ErrNoRows }, wantErr: domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{row: tc.row}
			used, limit, err := NewProfileRepository(exec, "app").AddTokensUsed(context.Background(), "u1", tc.delta)
			if exec.query != sqlinline.QAddTokensUsed {
				t.Fatal("expected add tokens query")
			}
			if exec.args[0] != "app" || exec.args[1] != "u1" || exec.args[2] != tc.delta {
				t.Fatalf("unexpected args %v", exec.args)
			}
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil || used != tc.used || limit != tc.limit {
				t.Fatalf("got used=%d limit=%d err=%v", used, limit, err)
			}
		})
	}
}
