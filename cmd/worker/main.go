package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studio/internal/adapter/repo"
	"studio/internal/domain"
	"studio/internal/infra"
)

const defaultPollInterval = time.Hour

// rolloverWorker zeroes monthly token counters once a new calendar month starts.
type rolloverWorker struct {
	ctx      context.Context
	resetter domain.UsageResetter
	logger   infra.Logger
	interval time.Duration
	now      func() time.Time
}

func main() {
	var (
		once     bool
		interval time.Duration
	)
	flag.BoolVar(&once, "once", false, "run a single rollover pass and exit")
	flag.DurationVar(&interval, "interval", defaultPollInterval, "time between rollover passes")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	w := &rolloverWorker{
		ctx:      ctx,
		resetter: repo.NewUsageRepository(infra.NewSQLRunner(pool, logger), cfg.AppID),
		logger:   logger,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}

	if once {
		if _, err := w.runOnce(); err != nil {
			logger.Fatal().Err(err).Msg("worker: rollover failed")
		}
		return
	}
	if err := w.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *rolloverWorker) Run() error {
	w.logger.Info().Dur("interval", w.interval).Msg("worker: started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.runOnce(); err != nil {
			w.logger.Error().Err(err).Msg("worker: rollover failed")
		}
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *rolloverWorker) runOnce() (int64, error) {
	start := periodStart(w.now())
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()
	n, err := w.resetter.ResetUsageBefore(ctx, start)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		w.logger.Info().Int64("profiles", n).Time("period_start", start).Msg("worker: monthly usage reset")
	}
	return n, nil
}

// periodStart is midnight UTC on the first day of t's month.
func periodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
