package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/colony-cli/internal/domain"
	"github.com/bnema/colony-cli/internal/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Manager owns an ordered collection of sessions. Structural changes (add,
// remove, close) are serialized with each other; they never hold a lock a
// session's poll loop needs.
type Manager struct {
	engine       ports.EngineClient
	clock        ports.Clock
	logger       zerolog.Logger
	pollInterval time.Duration
	bus          *EventBus

	structMu sync.Mutex

	mu      sync.RWMutex
	nextKey SessionKey
	entries []*Session
}

func NewManager(engine ports.EngineClient, clock ports.Clock, logger zerolog.Logger, pollInterval time.Duration) *Manager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}

	return &Manager{
		engine:       engine,
		clock:        clock,
		logger:       logger,
		pollInterval: ClampPollInterval(pollInterval),
		bus:          NewEventBus(),
	}
}

// AddSession registers a new Idle session. Starting it is up to the caller.
func (m *Manager) AddSession() (SessionKey, *Session) {
	m.structMu.Lock()
	defer m.structMu.Unlock()

	m.mu.Lock()
	m.nextKey++
	key := m.nextKey
	session := NewSession(key, m.engine, m.clock, m.logger, m.pollInterval)
	session.forward = m.bus
	m.entries = append(m.entries, session)
	m.mu.Unlock()

	m.logger.Debug().Uint64("session", uint64(key)).Msg("session added")
	m.bus.Publish(Update{Key: key, Kind: UpdateStatus, Status: domain.StatusIdle, At: m.clock.Now()})
	return key, session
}

func (m *Manager) Session(key SessionKey) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, session := range m.entries {
		if session.key == key {
			return session, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", domain.ErrUnknownSession, key)
}

// RemoveSession stops the session, waits until it is Terminated and only
// then drops it from the collection.
func (m *Manager) RemoveSession(ctx context.Context, key SessionKey) error {
	m.structMu.Lock()
	defer m.structMu.Unlock()

	session, err := m.Session(key)
	if err != nil {
		return err
	}

	session.detach()
	if err := session.Stop(ctx); err != nil {
		// The session stays listed, so it must stay startable.
		session.reattach()
		return fmt.Errorf("stop session %d: %w", key, err)
	}

	m.detach(key)
	m.logger.Debug().Uint64("session", uint64(key)).Msg("session removed")
	return nil
}

// Close stops every session concurrently and empties the manager.
func (m *Manager) Close(ctx context.Context) error {
	m.structMu.Lock()
	defer m.structMu.Unlock()

	m.mu.RLock()
	sessions := append([]*Session(nil), m.entries...)
	m.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, session := range sessions {
		session := session
		session.detach()
		g.Go(func() error {
			if err := session.Stop(gctx); err != nil {
				return fmt.Errorf("stop session %d: %w", session.key, err)
			}
			m.detach(session.key)
			return nil
		})
	}

	return g.Wait()
}

func (m *Manager) detach(key SessionKey) {
	m.mu.Lock()
	for i, session := range m.entries {
		if session.key == key {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.bus.Publish(Update{Key: key, Kind: UpdateRemoved, Status: domain.StatusTerminated, At: m.clock.Now()})
}

// ListSessions returns snapshots in insertion order.
func (m *Manager) ListSessions() []SessionSnapshot {
	m.mu.RLock()
	sessions := append([]*Session(nil), m.entries...)
	m.mu.RUnlock()

	snapshots := make([]SessionSnapshot, 0, len(sessions))
	for _, session := range sessions {
		snapshots = append(snapshots, session.Snapshot())
	}
	return snapshots
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Subscribe receives updates from every session the manager owns.
func (m *Manager) Subscribe(bufSize int) *Subscription {
	return m.bus.Subscribe(bufSize)
}

func (m *Manager) Unsubscribe(sub *Subscription) {
	m.bus.Unsubscribe(sub)
}
