package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/colony-cli/internal/domain"
	"github.com/bnema/colony-cli/internal/ports"
	"github.com/rs/zerolog"
)

const (
	MinPollInterval     = 100 * time.Millisecond
	MaxPollInterval     = time.Second
	DefaultPollInterval = 500 * time.Millisecond
	PollIntervalStep    = 100 * time.Millisecond
)

type SessionKey uint64

type SessionStats struct {
	Fetches      int
	Applied      int
	SkippedTicks int
	Discarded    int
	Failures     int
}

// SessionSnapshot is a read-only copy of a session. Config is nil until the
// session has been started once.
type SessionSnapshot struct {
	Key          SessionKey
	RemoteID     domain.RemoteID
	Status       domain.Status
	Config       *domain.SessionConfig
	LastState    domain.GameState
	PollInterval time.Duration
	Generation   uint64
	Stats        SessionStats
	LastError    string
	UpdatedAt    time.Time
}

// Session drives one remote simulation session: it owns the state machine,
// the poll ticker and the last state fetched from the engine.
//
// Every transition happens under mu. Network calls are made with mu released
// and their results are applied only if the generation captured before the
// call still matches.
type Session struct {
	key     SessionKey
	engine  ports.EngineClient
	clock   ports.Clock
	logger  zerolog.Logger
	bus     *EventBus
	forward *EventBus

	mu           sync.Mutex
	status       domain.Status
	id           domain.RemoteID
	config       domain.SessionConfig
	hasConfig    bool
	pollInterval time.Duration
	lastState    domain.GameState
	generation   uint64
	inFlight     bool
	detached     bool
	ticker       ports.Ticker
	loopCtx      context.Context
	cancelLoop   context.CancelFunc
	stopped      chan struct{}
	stats        SessionStats
	lastErr      error
	updatedAt    time.Time
}

func NewSession(key SessionKey, engine ports.EngineClient, clock ports.Clock, logger zerolog.Logger, pollInterval time.Duration) *Session {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}

	return &Session{
		key:          key,
		engine:       engine,
		clock:        clock,
		logger:       logger.With().Uint64("session", uint64(key)).Logger(),
		bus:          NewEventBus(),
		status:       domain.StatusIdle,
		pollInterval: ClampPollInterval(pollInterval),
	}
}

// ClampPollInterval bounds d to [MinPollInterval, MaxPollInterval].
func ClampPollInterval(d time.Duration) time.Duration {
	if d < MinPollInterval {
		return MinPollInterval
	}
	if d > MaxPollInterval {
		return MaxPollInterval
	}
	return d
}

func (s *Session) Key() SessionKey {
	return s.key
}

func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Subscribe returns a subscription that only receives this session's updates.
func (s *Session) Subscribe(bufSize int) *Subscription {
	return s.bus.Subscribe(bufSize)
}

func (s *Session) Unsubscribe(sub *Subscription) {
	s.bus.Unsubscribe(sub)
}

// Start asks the engine for a new remote session and arms the poll loop.
// It is accepted from Idle and Terminated.
func (s *Session) Start(ctx context.Context, cfg domain.SessionConfig) error {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return fmt.Errorf("start session: %w", domain.ErrSessionStopped)
	}
	if s.status != domain.StatusIdle && s.status != domain.StatusTerminated {
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot start from %s", domain.ErrInvalidTransition, status)
	}
	s.status = domain.StatusStarting
	s.generation++
	gen := s.generation
	s.lastErr = nil
	starting := s.updateLocked(UpdateStatus)
	s.mu.Unlock()
	s.publish(starting)

	id, err := s.engine.Start(ctx, cfg)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		if err == nil {
			s.stopOrphan(ctx, id)
		}
		return fmt.Errorf("start session: %w", domain.ErrSessionStopped)
	}
	if err != nil {
		s.status = domain.StatusIdle
		s.lastErr = err
		failed := s.updateLocked(UpdateStatus)
		s.mu.Unlock()

		s.logger.Error().Err(err).Msg("engine refused to start session")
		s.publish(failed)
		return fmt.Errorf("start session: %w", err)
	}

	s.id = id
	s.config = cfg
	s.hasConfig = true
	s.lastState = domain.GameState{}
	s.status = domain.StatusRunning
	s.armLocked(gen)
	loopCtx := s.loopCtx
	fetchNow := s.beginFetchLocked()
	running := s.updateLocked(UpdateStatus)
	s.mu.Unlock()

	s.logger.Info().Str("remote_id", string(id)).Dur("interval", s.PollInterval()).Msg("session started")
	s.publish(running)
	if fetchNow {
		go s.fetch(loopCtx, gen, id)
	}
	return nil
}

// stopOrphan releases a remote session whose start completed after Stop.
func (s *Session) stopOrphan(ctx context.Context, id domain.RemoteID) {
	if err := s.engine.Stop(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Warn().Err(err).Str("remote_id", string(id)).Msg("stop orphaned remote session")
		return
	}
	s.logger.Debug().Str("remote_id", string(id)).Msg("stopped remote session started after stop")
}

// Stop disarms the poll timer, then releases the remote session. The
// session ends Terminated whether or not the engine call succeeds. Calling
// Stop again, or from Idle, is safe; concurrent callers wait for the same
// transition.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	switch s.status {
	case domain.StatusTerminated:
		s.mu.Unlock()
		return nil
	case domain.StatusIdle, domain.StatusStarting:
		s.generation++
		s.status = domain.StatusTerminated
		update := s.updateLocked(UpdateStatus)
		s.mu.Unlock()
		s.publish(update)
		return nil
	case domain.StatusStopping:
		done := s.stopped
		s.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.generation++
	s.disarmLocked()
	s.status = domain.StatusStopping
	done := make(chan struct{})
	s.stopped = done
	id := s.id
	stopping := s.updateLocked(UpdateStatus)
	s.mu.Unlock()
	s.publish(stopping)

	if err := s.engine.Stop(ctx, id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Debug().Str("remote_id", string(id)).Msg("remote session already gone")
		} else {
			s.logger.Warn().Err(err).Str("remote_id", string(id)).Msg("engine stop failed, terminating locally")
		}
	}

	s.mu.Lock()
	s.id = ""
	s.lastState = domain.GameState{}
	s.status = domain.StatusTerminated
	s.stopped = nil
	terminated := s.updateLocked(UpdateStatus)
	s.mu.Unlock()
	close(done)

	s.logger.Info().Str("remote_id", string(id)).Msg("session stopped")
	s.publish(terminated)
	return nil
}

func (s *Session) Pause() error {
	return s.setPaused(true)
}

func (s *Session) Resume() error {
	return s.setPaused(false)
}

// TogglePause flips between Running and Paused.
func (s *Session) TogglePause() error {
	if s.Status() == domain.StatusPaused {
		return s.Resume()
	}
	return s.Pause()
}

func (s *Session) setPaused(paused bool) error {
	from, to := domain.StatusRunning, domain.StatusPaused
	if !paused {
		from, to = to, from
	}

	s.mu.Lock()
	switch s.status {
	case to:
		s.mu.Unlock()
		return nil
	case from:
		s.status = to
	default:
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot move from %s to %s", domain.ErrInvalidTransition, status, to)
	}
	update := s.updateLocked(UpdateStatus)
	s.mu.Unlock()

	s.logger.Debug().Stringer("status", to).Msg("session status changed")
	s.publish(update)
	return nil
}

// ResetConfig asks the engine to rebuild the remote session with cfg. The
// remote id and status are preserved. A running session fetches the rebuilt
// state right away unless a fetch is already outstanding.
func (s *Session) ResetConfig(ctx context.Context, cfg domain.SessionConfig) error {
	s.mu.Lock()
	if !s.status.Active() {
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot reset from %s", domain.ErrInvalidTransition, status)
	}
	id := s.id
	gen := s.generation
	s.mu.Unlock()

	err := s.engine.Reset(ctx, id, cfg)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return fmt.Errorf("reset session: %w", domain.ErrSessionStopped)
	}
	if err != nil {
		s.lastErr = err
		if errors.Is(err, domain.ErrSessionNotFound) {
			update := s.terminateLocked(err)
			s.mu.Unlock()
			s.logger.Error().Err(err).Str("remote_id", string(id)).Msg("remote session vanished during reset")
			s.publish(update)
			return fmt.Errorf("reset session: %w", err)
		}
		s.mu.Unlock()
		s.logger.Warn().Err(err).Msg("reset session failed")
		return fmt.Errorf("reset session: %w", err)
	}

	s.config = cfg
	loopCtx := s.loopCtx
	fetchNow := s.status == domain.StatusRunning && loopCtx != nil && s.beginFetchLocked()
	update := s.updateLocked(UpdateConfig)
	s.mu.Unlock()

	s.logger.Info().Str("remote_id", string(id)).Msg("session reset")
	s.publish(update)
	if fetchNow {
		go s.fetch(loopCtx, gen, id)
	}
	return nil
}

// SetPollInterval clamps d and applies it from the next scheduled tick. It
// never triggers a fetch by itself.
func (s *Session) SetPollInterval(d time.Duration) time.Duration {
	clamped := ClampPollInterval(d)

	s.mu.Lock()
	s.pollInterval = clamped
	if s.ticker != nil {
		s.ticker.Reset(clamped)
	}
	s.mu.Unlock()

	return clamped
}

func (s *Session) PollInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollInterval
}

// SpeedUp polls more often by one step.
func (s *Session) SpeedUp() time.Duration {
	return s.SetPollInterval(s.PollInterval() - PollIntervalStep)
}

// SlowDown polls less often by one step.
func (s *Session) SlowDown() time.Duration {
	return s.SetPollInterval(s.PollInterval() + PollIntervalStep)
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		Key:          s.key,
		RemoteID:     s.id,
		Status:       s.status,
		LastState:    s.lastState.Clone(),
		PollInterval: s.pollInterval,
		Generation:   s.generation,
		Stats:        s.stats,
		UpdatedAt:    s.updatedAt,
	}
	if s.hasConfig {
		cfg := s.config
		snap.Config = &cfg
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// detach prevents any further start once the manager lets go of the session.
func (s *Session) detach() {
	s.mu.Lock()
	s.detached = true
	s.mu.Unlock()
}

// reattach undoes detach when a removal did not go through.
func (s *Session) reattach() {
	s.mu.Lock()
	s.detached = false
	s.mu.Unlock()
}

func (s *Session) armLocked(gen uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := s.clock.NewTicker(s.pollInterval)
	s.ticker = ticker
	s.loopCtx = ctx
	s.cancelLoop = cancel
	go s.pollLoop(ctx, ticker, gen)
}

func (s *Session) disarmLocked() {
	if s.cancelLoop != nil {
		s.cancelLoop()
		s.cancelLoop = nil
	}
	s.loopCtx = nil
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *Session) pollLoop(ctx context.Context, ticker ports.Ticker, gen uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.tick(ctx, gen)
		}
	}
}

// tick issues a fetch unless one is still outstanding; overlapping ticks are
// dropped, never queued.
func (s *Session) tick(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if s.generation != gen || s.status != domain.StatusRunning {
		s.mu.Unlock()
		return
	}
	if !s.beginFetchLocked() {
		s.stats.SkippedTicks++
		s.mu.Unlock()
		s.logger.Debug().Msg("fetch still in flight, skipping tick")
		return
	}
	id := s.id
	s.mu.Unlock()

	go s.fetch(ctx, gen, id)
}

// beginFetchLocked claims the single in-flight slot.
func (s *Session) beginFetchLocked() bool {
	if s.inFlight {
		return false
	}
	s.inFlight = true
	s.stats.Fetches++
	return true
}

func (s *Session) fetch(ctx context.Context, gen uint64, id domain.RemoteID) {
	state, err := s.engine.FetchState(ctx, id)

	s.mu.Lock()
	s.inFlight = false
	if s.generation != gen {
		s.stats.Discarded++
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("discarding response from stale generation")
		return
	}

	if err != nil {
		s.lastErr = err
		if errors.Is(err, domain.ErrSessionNotFound) {
			update := s.terminateLocked(err)
			s.mu.Unlock()
			s.logger.Error().Err(err).Str("remote_id", string(id)).Msg("remote session vanished, terminating")
			s.publish(update)
			return
		}
		s.stats.Failures++
		s.mu.Unlock()
		s.logger.Warn().Err(err).Str("remote_id", string(id)).Msg("fetch state failed, retrying on next tick")
		return
	}

	if s.status != domain.StatusRunning {
		s.stats.Discarded++
		s.mu.Unlock()
		return
	}

	s.lastState = state
	s.lastErr = nil
	s.stats.Applied++
	s.updatedAt = s.clock.Now()
	update := s.updateLocked(UpdateState)
	s.mu.Unlock()

	s.publish(update)
}

// terminateLocked ends the session without contacting the engine, used once
// the engine reports the remote session is gone.
func (s *Session) terminateLocked(cause error) Update {
	s.generation++
	s.disarmLocked()
	s.id = ""
	s.lastState = domain.GameState{}
	s.status = domain.StatusTerminated
	s.lastErr = cause
	return s.updateLocked(UpdateStatus)
}

// updateLocked snapshots the session for an event. Every kind carries the
// current state, so a Terminated status event also clears the receiver's board.
func (s *Session) updateLocked(kind UpdateKind) Update {
	u := Update{
		Key:    s.key,
		Kind:   kind,
		Status: s.status,
		Err:    s.lastErr,
		State:  s.lastState.Clone(),
		At:     s.clock.Now(),
	}
	return u
}

func (s *Session) publish(u Update) {
	s.bus.Publish(u)
	s.forward.Publish(u)
}
