package events

import "sync"

type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus fans events out to subscribers synchronously on the publishing
// goroutine. Handlers may publish and subscribe from inside a handler.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Kind][]subscription
	nextID int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]subscription)}
}

// Subscribe registers fn for events of kind k and returns a func that removes it.
func (b *Bus) Subscribe(k Kind, fn Handler) func() {
	if b == nil || fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[k] = append(b.subs[k], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[k]
			for i, s := range list {
				if s.id == id {
					b.subs[k] = append(list[:i:i], list[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers evt to every handler subscribed to evt.Type.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	list := b.subs[evt.Type]
	handlers := make([]Handler, len(list))
	for i, s := range list {
		handlers[i] = s.fn
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}

// Subscribers returns the number of handlers registered for k.
func (b *Bus) Subscribers(k Kind) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[k])
}
