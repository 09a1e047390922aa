package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/colony-cli/internal/domain"
	"github.com/bnema/colony-cli/internal/ports"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) ports.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTicker{clock: c, ch: make(chan time.Time, 1), period: d, next: c.now.Add(d)}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves simulated time forward and fires every ticker that is due.
// Like time.Ticker, a tick is dropped when the previous one was not consumed.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	for _, t := range c.tickers {
		if t.stopped {
			continue
		}
		for !t.next.After(c.now) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.period)
		}
	}
}

func (c *fakeClock) ActiveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fakeTicker struct {
	clock   *fakeClock
	ch      chan time.Time
	period  time.Duration
	next    time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Reset(d time.Duration) {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	t.period = d
	t.next = t.clock.now.Add(d)
	t.stopped = false
}

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	t.stopped = true
}

type fakeEngine struct {
	mu sync.Mutex

	ids      []domain.RemoteID
	startErr error
	state    domain.GameState
	fetchErr error
	resetErr error
	stopErr  error

	// fetchGate, when set, holds every fetch until a value is received.
	fetchGate chan struct{}
	// ignoreCancel makes gated fetches wait for the gate even after their
	// context is cancelled, like a transport that ignores cancellation.
	ignoreCancel bool
	startGate    chan struct{}
	stopGate     chan struct{}

	starts      int
	fetches     int
	resets      int
	inFlight    int
	maxInFlight int
	fetchedIDs  []domain.RemoteID
	stopped     []domain.RemoteID
	resetCfgs   []domain.SessionConfig
}

func newFakeEngine(ids ...domain.RemoteID) *fakeEngine {
	return &fakeEngine{ids: ids}
}

func (f *fakeEngine) Start(ctx context.Context, _ domain.SessionConfig) (domain.RemoteID, error) {
	f.mu.Lock()
	f.starts++
	gate := f.startGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	if len(f.ids) == 0 {
		return "generated", nil
	}
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id, nil
}

func (f *fakeEngine) FetchState(ctx context.Context, id domain.RemoteID) (domain.GameState, error) {
	f.mu.Lock()
	f.fetches++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.fetchedIDs = append(f.fetchedIDs, id)
	gate := f.fetchGate
	ignoreCancel := f.ignoreCancel
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if gate != nil {
		if ignoreCancel {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return domain.GameState{}, ctx.Err()
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return domain.GameState{}, f.fetchErr
	}
	return f.state.Clone(), nil
}

func (f *fakeEngine) Reset(_ context.Context, _ domain.RemoteID, cfg domain.SessionConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resets++
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resetCfgs = append(f.resetCfgs, cfg)
	return nil
}

func (f *fakeEngine) Stop(ctx context.Context, id domain.RemoteID) error {
	f.mu.Lock()
	gate := f.stopGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopped = append(f.stopped, id)
	return f.stopErr
}

func (f *fakeEngine) set(fn func(f *fakeEngine)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeEngine) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeEngine) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *fakeEngine) stoppedIDs() []domain.RemoteID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RemoteID(nil), f.stopped...)
}

func (f *fakeEngine) fetchedIDsCopy() []domain.RemoteID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RemoteID(nil), f.fetchedIDs...)
}

func (f *fakeEngine) peakInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func testConfig() domain.SessionConfig {
	cfg, err := domain.Validate(domain.DefaultRawConfig())
	if err != nil {
		panic(err)
	}
	return cfg
}

func grid(rows, columns int, fill string) [][]string {
	g := make([][]string, rows)
	for i := range g {
		g[i] = make([]string, columns)
		for j := range g[i] {
			g[i][j] = fill
		}
	}
	return g
}
