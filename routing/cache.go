package routing

import (
	"fmt"
	"sync"
)

type slot struct {
	mu   sync.Mutex
	path Path
	seq  uint64 // sequence of the applied request, used by setIfNewer
}

// Cache holds one path per entrance. Each slot is locked independently;
// writers to different entrances never contend.
type Cache struct {
	slots []slot
}

func NewCache(entrances int) *Cache {
	if entrances < 0 {
		entrances = 0
	}
	return &Cache{slots: make([]slot, entrances)}
}

func (c *Cache) Len() int { return len(c.slots) }

func (c *Cache) slot(id int) (*slot, error) {
	if id < 0 || id >= len(c.slots) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidEntrance, id, len(c.slots))
	}
	return &c.slots[id], nil
}

// Get returns a copy of the slot content; absent if never set.
func (c *Cache) Get(id int) (Path, error) {
	s, err := c.slot(id)
	if err != nil {
		return Absent(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path.Clone(), nil
}

// All returns a copy of every slot in entrance order. Slots are read one at a
// time, so the result is not a cross-slot atomic snapshot.
func (c *Cache) All() []Path {
	out := make([]Path, len(c.slots))
	for i := range c.slots {
		s := &c.slots[i]
		s.mu.Lock()
		out[i] = s.path.Clone()
		s.mu.Unlock()
	}
	return out
}

// Set replaces the slot content and returns what it held before. This is the
// only way to observe a previous value.
func (c *Cache) Set(id int, p Path) (Path, error) {
	s, err := c.slot(id)
	if err != nil {
		return Absent(), err
	}
	next := p.Clone()
	s.mu.Lock()
	prev := s.path
	s.path = next
	s.mu.Unlock()
	return prev, nil
}

// setIfNewer behaves like Set unless a request with a higher sequence number
// has already been applied to the slot, in which case p is discarded.
func (c *Cache) setIfNewer(id int, seq uint64, p Path) (prev Path, applied bool, err error) {
	s, err := c.slot(id)
	if err != nil {
		return Absent(), false, err
	}
	next := p.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.seq {
		return s.path.Clone(), false, nil
	}
	prev = s.path
	s.path = next
	s.seq = seq
	return prev, true, nil
}
