package authprovider

import (
	"sync"

	"github.com/google/uuid"
)

// Bus fans provider events out to subscribers. Handlers run synchronously on the
// publishing goroutine, outside the bus lock, so a handler may unsubscribe itself.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]func(Event)
	order    []string
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string]func(Event)),
	}
}

type subscription struct {
	bus  *Bus
	id   string
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}

func (b *Bus) Subscribe(fn func(Event)) Subscription {
	id := uuid.New().String()
	b.mu.Lock()
	b.handlers[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()
	return &subscription{bus: b, id: id}
}

func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}
