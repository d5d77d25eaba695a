package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/seedbed/internal/logging"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock may be held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to generation sessions.
// Runs of the same session must not interleave: each one reads the
// just_once flags and id sequences the previous one wrote.
// Per-session mutexes are reference counted and dropped when unused.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	clock   ports.Clock
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock sets the clock used to stamp new sessions.
func WithClock(clock ports.Clock) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		clock:   ports.SystemClock,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// Save persists the session under its ID.
func (m *Manager) Save(ctx context.Context, s *domain.Session) error {
	return m.WithLock(ctx, s.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, s)
	})
}

// Update runs fn against the current session (a fresh one if none is stored)
// while holding the session lock. A non-nil session returned by fn is saved;
// nil leaves the stored state untouched.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(context.Context, *domain.Session) (*domain.Session, error)) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}
		next, err := fn(ctx, current)
		if next != nil {
			if serr := m.store.Save(ctx, next); serr != nil {
				return errors.Join(err, fmt.Errorf("failed to save session: %w", serr))
			}
		}
		return err
	})
}

func (m *Manager) loadOrNew(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := m.store.Load(ctx, sessionID)
	if err == nil {
		s.Normalize()
		return s, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}
	s = domain.NewSession(sessionID)
	s.CreatedAt = m.clock.Now()
	return s, nil
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
