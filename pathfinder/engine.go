package pathfinder

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/milk9111/fieldroutes/common"
	"github.com/milk9111/fieldroutes/logging"
	"github.com/milk9111/fieldroutes/terrain"
	"golang.org/x/sync/semaphore"
)

// Result is the single value delivered for a request. Err is non-nil when no
// path was produced; Waypoints then is nil.
type Result struct {
	Waypoints []common.Point
	Origin    common.Point
	Version   uint64 // terrain version the search ran against
	Err       error
}

// SnapshotSource yields the terrain a search runs on. *terrain.Grid implements it.
type SnapshotSource interface {
	Snapshot() *terrain.Snapshot
}

type Stats struct {
	Requested uint64
	Completed uint64
	Failed    uint64
}

type Option func(*Engine)

// WithMaxConcurrent bounds the number of searches running at once. Further
// requests queue until a slot frees up.
func WithMaxConcurrent(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrent = int64(n)
		}
	}
}

// WithMaxNodes bounds the nodes a single search may expand. Zero is unbounded.
func WithMaxNodes(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxNodes = n
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine computes paths asynchronously. Every request runs on its own
// goroutine, waits for a concurrency slot, snapshots the terrain and searches.
type Engine struct {
	source        SnapshotSource
	maxConcurrent int64
	maxNodes      int
	logger        logging.Logger

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	requested atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

func New(source SnapshotSource, opts ...Option) *Engine {
	e := &Engine{
		source:        source,
		maxConcurrent: int64(runtime.GOMAXPROCS(0)),
		logger:        logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sem = semaphore.NewWeighted(e.maxConcurrent)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e
}

// RequestPath searches from origin to dest. The returned channel receives
// exactly one Result and is then closed. It never blocks the caller.
func (e *Engine) RequestPath(ctx context.Context, dest, origin common.Point) <-chan Result {
	out := make(chan Result, 1)
	e.requested.Add(1)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.failed.Add(1)
		out <- Result{Origin: origin, Err: ErrClosed}
		close(out)
		return out
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer close(out)
		res := e.run(ctx, dest, origin)
		if res.Err != nil {
			e.failed.Add(1)
		} else {
			e.completed.Add(1)
		}
		out <- res
	}()
	return out
}

func (e *Engine) run(ctx context.Context, dest, origin common.Point) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.ctx, cancel)
	defer stop()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return Result{Origin: origin, Err: err}
	}
	defer e.sem.Release(1)

	if err := ctx.Err(); err != nil {
		return Result{Origin: origin, Err: err}
	}

	snap := e.source.Snapshot()
	waypoints, err := Search(snap, origin, dest, e.maxNodes)
	if err != nil {
		e.logger.Debug("search failed", "origin", origin.String(), "dest", dest.String(), "version", snap.Version, "error", err)
		return Result{Origin: origin, Version: snap.Version, Err: err}
	}
	return Result{Waypoints: waypoints, Origin: origin, Version: snap.Version}
}

func (e *Engine) Stats() Stats {
	return Stats{
		Requested: e.requested.Load(),
		Completed: e.completed.Load(),
		Failed:    e.failed.Load(),
	}
}

// Close rejects new requests, cancels queued ones and waits for running
// searches to deliver their results.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	return nil
}
