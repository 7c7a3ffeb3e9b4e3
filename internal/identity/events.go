package identity

import (
	"log/slog"
	"sync"
)

const eventBuffer = 8

// broadcaster fans events out to subscribers. A subscriber that stops reading
// misses events instead of blocking the provider.
type broadcaster struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func newBroadcaster(logger *slog.Logger) *broadcaster {
	return &broadcaster{
		logger: logger,
		subs:   make(map[int]chan Event),
	}
}

func (b *broadcaster) subscribe(initial Event) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, eventBuffer)
	ch <- initial
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *broadcaster) publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("dropping auth event for a slow subscriber", "subscriber", id, "event", event.Type)
		}
	}
}
