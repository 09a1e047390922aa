package application

import (
	"sync"
	"time"

	"github.com/bnema/colony-cli/internal/domain"
)

type UpdateKind string

const (
	UpdateStatus  UpdateKind = "status"
	UpdateState   UpdateKind = "state"
	UpdateConfig  UpdateKind = "config"
	UpdateRemoved UpdateKind = "removed"
)

// Update is an immutable notification about one session. State is a private
// copy owned by the receiver and always holds the session's current last
// state, whatever the Kind: status events that end a session carry an empty
// State.
type Update struct {
	Key    SessionKey
	Kind   UpdateKind
	Status domain.Status
	State  domain.GameState
	Err    error
	At     time.Time
}

// Subscription receives updates from an EventBus.
type Subscription struct {
	C  <-chan Update
	ch chan Update
}

// EventBus fans out updates to all active subscribers. It is safe for
// concurrent use.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe creates a new subscription with the given channel buffer size.
// The caller should read from sub.C and eventually call Unsubscribe.
func (b *EventBus) Subscribe(bufSize int) *Subscription {
	ch := make(chan Update, bufSize)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish sends an update to all subscribers. A subscriber whose buffer is
// full misses the update so a slow view never stalls a poll loop.
func (b *EventBus) Publish(u Update) {
	if b == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- u:
		default:
		}
	}
}
