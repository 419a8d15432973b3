package routing

import "sync/atomic"

// Barrier runs a callback once a fixed number of completions have been
// reported. Done is safe to call from any goroutine; the callback runs exactly
// once, on the goroutine whose Done brought the count to zero.
type Barrier struct {
	remaining atomic.Int64
	fired     atomic.Bool
	fn        func()
}

// NewBarrier creates a barrier for n completions. With n <= 0 the callback
// runs immediately.
func NewBarrier(n int, fn func()) *Barrier {
	b := &Barrier{fn: fn}
	b.remaining.Store(int64(n))
	if n <= 0 {
		b.fire()
	}
	return b
}

// Done records one completion. It reports whether this call released the barrier.
// Calls past zero are ignored.
func (b *Barrier) Done() bool {
	if b.remaining.Add(-1) != 0 {
		return false
	}
	return b.fire()
}

func (b *Barrier) fire() bool {
	if !b.fired.CompareAndSwap(false, true) {
		return false
	}
	if b.fn != nil {
		b.fn()
	}
	return true
}

func (b *Barrier) Remaining() int {
	return int(max(b.remaining.Load(), 0))
}

func (b *Barrier) Fired() bool {
	return b.fired.Load()
}
