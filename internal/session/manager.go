package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/usradmin/internal/models"
)

const (
	defaultIdleTimeout = 24 * time.Hour
	sweepInterval      = time.Minute
)

type recordKeeper interface {
	GetSession(ctx context.Context, id string) (*models.SessionRecord, bool, error)
	SaveSession(ctx context.Context, record *models.SessionRecord) error
	DeleteSession(ctx context.Context, id string) error
}

type entry struct {
	session *Session
	seen    time.Time
}

// Manager hands out sessions and persists their tokens.
// Only the ID and the token reach the store; notifications and page state stay in memory.
// Only authenticated sessions are kept in memory, and an entry idle for longer
// than the idle timeout is dropped and restored from the store on its next use.
type Manager struct {
	mu          sync.Mutex
	live        map[string]*entry
	store       recordKeeper
	idleTimeout time.Duration
	now         func() time.Time
	lastSweep   time.Time
}

type Option func(*Manager)

// WithIdleTimeout sets how long an unused session stays in memory.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.idleTimeout = timeout
		}
	}
}

func NewManager(store recordKeeper, opts ...Option) *Manager {
	m := &Manager{
		live:        map[string]*entry{},
		store:       store,
		idleTimeout: defaultIdleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Anonymous returns a fresh unauthenticated session that is neither kept in
// memory nor persisted.
func (m *Manager) Anonymous() *Session {
	return New("")
}

// Start returns the session with the given id. A session unknown both in memory
// and in the store starts anonymous and is not kept.
func (m *Manager) Start(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	if e, ok := m.live[id]; ok {
		e.seen = now
		return e.session, nil
	}

	record, found, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("in internal/session/manager.go/Start(): error while `m.store.GetSession()` calling: %w", err)
	}
	if !found {
		return New(id), nil
	}

	s := restore(record.ID, record.Token)
	m.live[id] = &entry{session: s, seen: now}

	return s, nil
}

// Login authenticates with token under a new session ID and persists it.
// Pending notifications move to the new session; s itself is left unauthenticated.
func (m *Manager) Login(ctx context.Context, s *Session, token string) (*Session, error) {
	if s.IsAuthenticated() {
		if err := m.Logout(ctx, s); err != nil {
			return nil, err
		}
	}

	renewed := New(uuid.NewString())
	if err := renewed.Login(token); err != nil {
		return nil, err
	}

	err := m.store.SaveSession(ctx, &models.SessionRecord{ID: renewed.ID(), Token: token})
	if err != nil {
		return nil, fmt.Errorf("in internal/session/manager.go/Login(): error while `m.store.SaveSession()` calling: %w", err)
	}

	for _, flash := range s.PopFlashes() {
		renewed.AddFlash(flash)
	}

	m.mu.Lock()
	now := m.now()
	m.sweep(now)
	m.live[renewed.ID()] = &entry{session: renewed, seen: now}
	m.mu.Unlock()

	return renewed, nil
}

// Logout clears the session, forgets it and removes its persisted token.
func (m *Manager) Logout(ctx context.Context, s *Session) error {
	s.Logout()

	m.mu.Lock()
	delete(m.live, s.ID())
	m.mu.Unlock()

	if err := m.store.DeleteSession(ctx, s.ID()); err != nil {
		return fmt.Errorf("in internal/session/manager.go/Logout(): error while `m.store.DeleteSession()` calling: %w", err)
	}

	return nil
}

// sweep drops idle entries at most once per sweepInterval. m.mu must be held.
func (m *Manager) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now

	for id, e := range m.live {
		if now.Sub(e.seen) > m.idleTimeout {
			delete(m.live, id)
		}
	}
}
