package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/paradigm/internal/logging"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to sessions of a TrialStore within one process.
// Locks are reference counted and dropped once unused.
type Manager struct {
	store ports.TrialStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.TrialStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

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

// Store returns the unlocked underlying store. Use it inside WithLock.
func (m *Manager) Store() ports.TrialStore {
	return m.store
}

// WithLock runs fn while holding the session's lock. The lock is not reentrant: fn must use
// Store, not the Manager, to reach the records.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Debug("session locked", "session", sessionID)
	return fn(ctx)
}

// Save implements ports.TrialStore.
func (m *Manager) Save(ctx context.Context, sessionID string, rec *domain.TrialRecord) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, rec)
	})
}

// Load implements ports.TrialStore.
func (m *Manager) Load(ctx context.Context, sessionID string, trialNumber int) (*domain.TrialRecord, error) {
	var rec *domain.TrialRecord
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		rec, err = m.store.Load(ctx, sessionID, trialNumber)
		return err
	})
	return rec, err
}

// Trials implements ports.TrialStore.
func (m *Manager) Trials(ctx context.Context, sessionID string) ([]int, error) {
	var trials []int
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		trials, err = m.store.Trials(ctx, sessionID)
		return err
	})
	return trials, err
}

// Delete implements ports.TrialStore. It waits for a run holding the session to finish.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List implements ports.SessionLister when the underlying store does.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	lister, ok := m.store.(ports.SessionLister)
	if !ok {
		return nil, fmt.Errorf("store cannot list sessions: %w", errors.ErrUnsupported)
	}
	return lister.List(ctx)
}
