// Package session holds the per-user state of a signed-in account: its quota
// tracker, cached profile and live history snapshot.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"studio/internal/auth"
	"studio/internal/domain"
	"studio/internal/generation"
	"studio/internal/history"
	"studio/internal/quota"
)

// Submitter runs one generation against an account.
type Submitter interface {
	Submit(ctx context.Context, acct generation.Account, req domain.GenerationRequest) (*domain.HistoryEntry, error)
}

type Session struct {
	identity  auth.Identity
	quota     *quota.Tracker
	submitter Submitter
	busy      atomic.Bool

	mu          sync.RWMutex
	profile     domain.UserProfile
	snapshot    []domain.HistoryEntry
	watchers    map[int]chan struct{}
	nextWatcher int
	closed      bool

	unsubscribe domain.Unsubscribe
	load        func(context.Context) (domain.UserProfile, error)
}

func newSession(id auth.Identity, profile domain.UserProfile, submitter Submitter) *Session {
	return &Session{
		identity:  id,
		quota:     quota.NewTracker(profile.TokensUsedThisMonth, profile.TokensLimit),
		submitter: submitter,
		profile:   profile,
		watchers:  make(map[int]chan struct{}),
	}
}

func (s *Session) Identity() auth.Identity {
	return s.identity
}

func (s *Session) UserID() string {
	return s.identity.UserID
}

// Profile returns the cached profile with the live token count.
func (s *Session) Profile() domain.UserProfile {
	s.mu.RLock()
	p := s.profile
	s.mu.RUnlock()
	p.TokensUsedThisMonth = s.quota.Used()
	p.TokensLimit = s.quota.Limit()
	return p
}

func (s *Session) Plan() domain.PlanID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Plan
}

// Usage is the current usage badge.
func (s *Session) Usage() quota.Usage {
	return s.quota.Usage()
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Submit runs one generation. A second call while one is in flight fails with
// domain.ErrDuplicateOperation.
func (s *Session) Submit(ctx context.Context, req domain.GenerationRequest) (*domain.HistoryEntry, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrDuplicateOperation
	}
	defer s.busy.Store(false)
	s.sync(ctx)

	entry, err := s.submitter.Submit(ctx, generation.Account{
		UserID: s.identity.UserID,
		Plan:   s.Plan(),
		Quota:  s.quota,
	}, req)
	if err != nil {
		return nil, err
	}
	s.insertEntry(*entry)
	return entry, nil
}

// History filters the latest snapshot by term.
func (s *Session) History(term string) []domain.HistoryEntry {
	s.mu.RLock()
	snapshot := s.snapshot
	s.mu.RUnlock()
	filtered := history.Filter(snapshot, term)
	out := make([]domain.HistoryEntry, len(filtered))
	copy(out, filtered)
	return out
}

// Watch returns a channel that receives a signal after each snapshot change.
// The channel is closed when the session ends or stop is called.
func (s *Session) Watch() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if w, ok := s.watchers[id]; ok {
				delete(s.watchers, id)
				close(w)
			}
		})
	}
}

// resync reloads the stored profile unless a submission is in flight; the
// submission writes its own result.
func (s *Session) resync(ctx context.Context) {
	if s.Busy() || s.load == nil {
		return
	}
	p, err := s.load(ctx)
	if err != nil || s.Busy() {
		return
	}
	s.applyProfile(p)
}

// sync reloads the stored profile before a submission. A failed load keeps
// the cached state.
func (s *Session) sync(ctx context.Context) {
	if s.load == nil {
		return
	}
	if p, err := s.load(ctx); err == nil {
		s.applyProfile(p)
	}
}

func (s *Session) applyProfile(p domain.UserProfile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	s.quota.Reset(p.TokensUsedThisMonth, p.TokensLimit)
}

func (s *Session) setSnapshot(entries []domain.HistoryEntry) {
	s.mu.Lock()
	s.snapshot = entries
	s.notifyLocked()
	s.mu.Unlock()
}

// insertEntry shows a fresh entry before the feed delivers the next snapshot.
func (s *Session) insertEntry(e domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.snapshot {
		if existing.ID == e.ID {
			return
		}
	}
	next := make([]domain.HistoryEntry, 0, len(s.snapshot)+1)
	next = append(next, e)
	next = append(next, s.snapshot...)
	s.snapshot = history.SortByDateDesc(next)
	s.notifyLocked()
}

func (s *Session) notifyLocked() {
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Session) close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
	s.snapshot = nil
}
