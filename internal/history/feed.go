package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
)

const (
	defaultListLimit   = 100
	defaultLoadTimeout = 10 * time.Second
)

// FeedOptions tunes snapshot loading.
type FeedOptions struct {
	Limit       int
	LoadTimeout time.Duration
	Logger      *infra.Logger
}

// Feed writes history entries and pushes fresh snapshots to subscribers.
type Feed struct {
	repo        domain.HistoryRepository
	notifier    Notifier
	limit       int
	loadTimeout time.Duration
	logger      *infra.Logger
}

func NewFeed(repo domain.HistoryRepository, notifier Notifier, opts FeedOptions) *Feed {
	f := &Feed{
		repo:        repo,
		notifier:    notifier,
		limit:       opts.Limit,
		loadTimeout: opts.LoadTimeout,
		logger:      opts.Logger,
	}
	if f.notifier == nil {
		f.notifier = NewLocalNotifier()
	}
	if f.limit <= 0 {
		f.limit = defaultListLimit
	}
	if f.loadTimeout <= 0 {
		f.loadTimeout = defaultLoadTimeout
	}
	if f.logger == nil {
		nop := zerolog.Nop()
		f.logger = &nop
	}
	return f
}

// Append stores entry and notifies the owner's subscribers.
// A failed notification is logged; the write itself already succeeded.
func (f *Feed) Append(ctx context.Context, entry domain.HistoryEntry) error {
	if err := f.repo.Append(ctx, entry); err != nil {
		return err
	}
	if err := f.notifier.Publish(ctx, entry.UserID); err != nil {
		f.logger.Warn().Err(err).Str("user_id", entry.UserID).Msg("history notify failed")
	}
	return nil
}

// List returns the newest entries for userID, newest first.
func (f *Feed) List(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	entries, err := f.repo.List(ctx, userID, f.limit)
	if err != nil {
		return nil, err
	}
	return SortByDateDesc(entries), nil
}

// Subscribe pushes the current snapshot, then a new one after every change.
// The subscription outlives ctx's cancellation; it ends when the returned
// Unsubscribe is called. Unsubscribe must not be called from the callbacks.
func (f *Feed) Subscribe(ctx context.Context, userID string, onChange func([]domain.HistoryEntry), onError func(error)) (domain.Unsubscribe, error) {
	if onChange == nil {
		return nil, errors.New("history: onChange callback is required")
	}
	if onError == nil {
		onError = func(error) {}
	}
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	signals, err := f.notifier.Listen(subCtx, userID)
	if err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.push(subCtx, userID, onChange, onError)
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				f.push(subCtx, userID, onChange, onError)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (f *Feed) push(ctx context.Context, userID string, onChange func([]domain.HistoryEntry), onError func(error)) {
	loadCtx, cancel := context.WithTimeout(ctx, f.loadTimeout)
	defer cancel()
	entries, err := f.List(loadCtx, userID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		f.logger.Error().Err(err).Str("user_id", userID).Msg("history snapshot failed")
		onError(err)
		return
	}
	onChange(entries)
}

var (
	_ domain.HistoryFeed     = (*Feed)(nil)
	_ domain.HistoryAppender = (*Feed)(nil)
)
