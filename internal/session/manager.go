package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"studio/internal/auth"
	"studio/internal/domain"
	"studio/internal/infra"
)

const defaultLoadTimeout = 10 * time.Second

// Options configures a Manager.
type Options struct {
	Profiles    domain.ProfileRepository
	Feed        domain.HistoryFeed
	Submitter   Submitter
	LoadTimeout time.Duration
	Now         func() time.Time
	Logger      *infra.Logger
}

// Manager owns the live sessions, at most one per user.
type Manager struct {
	profiles    domain.ProfileRepository
	feed        domain.HistoryFeed
	submitter   Submitter
	loadTimeout time.Duration
	now         func() time.Time
	logger      *infra.Logger

	signins  singleflight.Group
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Profiles == nil || opts.Feed == nil || opts.Submitter == nil {
		return nil, errors.New("session: profiles, feed and submitter are required")
	}
	m := &Manager{
		profiles:    opts.Profiles,
		feed:        opts.Feed,
		submitter:   opts.Submitter,
		loadTimeout: opts.LoadTimeout,
		now:         opts.Now,
		logger:      opts.Logger,
		sessions:    make(map[string]*Session),
	}
	if m.loadTimeout <= 0 {
		m.loadTimeout = defaultLoadTimeout
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	if m.logger == nil {
		nop := zerolog.Nop()
		m.logger = &nop
	}
	return m, nil
}

// SignIn returns the live session for id, creating it on first use. A live
// session is resynced with the stored profile so resets and plan changes made
// elsewhere take effect.
func (m *Manager) SignIn(ctx context.Context, id auth.Identity) (*Session, error) {
	if id.UserID == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrUnauthorized)
	}
	if s, ok := m.lookup(id.UserID); ok {
		s.resync(ctx)
		return s, nil
	}
	v, err, _ := m.signins.Do(id.UserID, func() (any, error) {
		if s, ok := m.lookup(id.UserID); ok {
			return s, nil
		}
		// Shared by every caller waiting on this key, so one cancelled
		// request must not fail the others.
		openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.loadTimeout)
		defer cancel()
		return m.open(openCtx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (m *Manager) open(ctx context.Context, id auth.Identity) (*Session, error) {
	profile, err := m.loadOrCreate(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	s := newSession(id, profile, m.submitter)
	log := m.logger.With().Str("user_id", id.UserID).Logger()
	s.load = func(ctx context.Context) (domain.UserProfile, error) {
		p, err := m.load(ctx, id.UserID)
		if err != nil {
			log.Warn().Err(err).Msg("profile resync failed")
		}
		return p, err
	}
	unsubscribe, err := m.feed.Subscribe(ctx, id.UserID, s.setSnapshot, func(err error) {
		log.Warn().Err(err).Msg("history snapshot unavailable")
		s.setSnapshot(nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe history: %w", domain.ErrPersistence, err)
	}
	s.unsubscribe = unsubscribe

	m.mu.Lock()
	m.sessions[id.UserID] = s
	m.mu.Unlock()
	log.Info().Str("plan", string(profile.Plan)).Int("tokens_used", profile.TokensUsedThisMonth).Msg("session started")
	return s, nil
}

func (m *Manager) loadOrCreate(ctx context.Context, userID string) (domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, m.loadTimeout)
	defer cancel()
	p, err := m.profiles.Get(ctx, userID)
	if err == nil {
		return *p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.UserProfile{}, fmt.Errorf("%w: load profile: %w", domain.ErrPersistence, err)
	}
	fresh := domain.NewProfile(userID, m.now())
	if err := m.profiles.Merge(ctx, userID, domain.PatchFromProfile(fresh)); err != nil {
		return domain.UserProfile{}, fmt.Errorf("%w: create profile: %w", domain.ErrPersistence, err)
	}
	m.logger.Info().Str("user_id", userID).Msg("profile created")
	return fresh, nil
}

// Get returns the live session for userID.
func (m *Manager) Get(userID string) (*Session, error) {
	if s, ok := m.lookup(userID); ok {
		return s, nil
	}
	return nil, domain.ErrNoSession
}

func (m *Manager) lookup(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Refresh re-reads the profile backing userID's session.
func (m *Manager) Refresh(ctx context.Context, userID string) (*Session, error) {
	s, err := m.Get(userID)
	if err != nil {
		return nil, err
	}
	p, err := m.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.applyProfile(p)
	return s, nil
}

func (m *Manager) load(ctx context.Context, userID string) (domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, m.loadTimeout)
	defer cancel()
	p, err := m.profiles.Get(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("%w: reload profile: %w", domain.ErrPersistence, err)
	}
	return *p, nil
}

// SignOut ends userID's session and its history subscription.
func (m *Manager) SignOut(userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if !ok {
		return domain.ErrNoSession
	}
	s.close()
	m.logger.Info().Str("user_id", userID).Msg("session ended")
	return nil
}

// Close ends every live session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
