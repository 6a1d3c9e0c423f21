package engine

import (
	"sync"
	"time"
)

// Event is a notable occurrence in the session, kept in a bounded log and
// fanned out to stream subscribers.
type Event struct {
	Time        time.Time `json:"time"`
	GameDay     int       `json:"game_day"`
	Category    string    `json:"category"` // "delivery", "market", "lottery", "expense", "school", "career", "dialogue", "system"
	Description string    `json:"description"`
}

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// eventBus keeps the recent log and pushes to subscribers without blocking
// the simulation: slow consumers drop events.
type eventBus struct {
	mu     sync.Mutex
	log    []Event
	subs   map[int]chan Event
	nextID int

	// undrained counts log entries not yet handed to drain, for the
	// persistence appender.
	undrained int
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]chan Event)}
}

func (b *eventBus) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.log = append(b.log, e)
	b.undrained++
	if len(b.log) > maxEvents {
		b.log = b.log[len(b.log)-maxEvents:]
		if b.undrained > len(b.log) {
			b.undrained = len(b.log)
		}
	}

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// subscribe returns a channel of future events and an unsubscribe func.
func (b *eventBus) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// drain returns events published since the previous drain, for append-only
// persistence.
func (b *eventBus) drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.undrained == 0 {
		return nil
	}
	out := make([]Event, b.undrained)
	copy(out, b.log[len(b.log)-b.undrained:])
	b.undrained = 0
	return out
}

// recent returns the last limit events.
func (b *eventBus) recent(limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if limit <= 0 || limit > len(b.log) {
		limit = len(b.log)
	}
	out := make([]Event, limit)
	copy(out, b.log[len(b.log)-limit:])
	return out
}
