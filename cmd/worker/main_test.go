package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type resetFunc func(ctx context.Context, periodStart time.Time) (int64, error)

func (f resetFunc) ResetUsageBefore(ctx context.Context, periodStart time.Time) (int64, error) {
	return f(ctx, periodStart)
}

func TestPeriodStart(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		// 1 Apr 03:00 in UTC+7 is still 31 Mar in UTC.
		{time.Date(2026, 4, 1, 3, 0, 0, 0, jakarta), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := periodStart(tc.in); !got.Equal(tc.want) {
			t.Fatalf("periodStart(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRunOncePassesPeriodStart(t *testing.T) {
	var got time.Time
	w := &rolloverWorker{
		ctx: context.Background(),
		resetter: resetFunc(func(ctx context.Context, start time.Time) (int64, error) {
			got = start
			return 3, nil
		}),
		logger: zerolog.Nop(),
		now:    func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) },
	}
	n, err := w.runOnce()
	if err != nil || n != 3 {
		t.Fatalf("runOnce = %d, %v", n, err)
	}
	if want := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("period start %v, want %v", got, want)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	w := &rolloverWorker{
		ctx: ctx,
		resetter: resetFunc(func(context.Context, time.Time) (int64, error) {
			calls++
			cancel()
			return 0, errors.New("db down")
		}),
		logger:   zerolog.Nop(),
		interval: time.Hour,
		now:      time.Now,
	}
	if err := w.Run(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one pass, got %d", calls)
	}
}
