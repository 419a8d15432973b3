package events

import "sync"

// Queue is a FIFO of events safe for concurrent producers. Subscribing
// Queue.Push to a bus lets a single consumer, such as a tick loop, drain
// events at its own pace.
type Queue struct {
	mu    sync.Mutex
	items []Event
}

func (q *Queue) Push(evt Event) {
	if q == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, evt)
	q.mu.Unlock()
}

// Drain returns all queued events and clears the queue.
func (q *Queue) Drain() []Event {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
