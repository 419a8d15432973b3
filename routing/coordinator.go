package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/milk9111/fieldroutes/events"
	"github.com/milk9111/fieldroutes/logging"
	"github.com/milk9111/fieldroutes/pathfinder"
)

// RerouteRequest asks for an enemy heading out of an entrance to be rerouted.
type RerouteRequest struct {
	Enemy    string
	Entrance int
}

// RerouteHook is consulted for reroute requests. Its advice is logged only;
// it never changes cached paths.
type RerouteHook interface {
	Advise(req RerouteRequest, current Path) (string, error)
}

type Option func(*Coordinator)

// WithNotifier adds an observer for path changes. May be given more than once.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifiers = append(c.notifiers, n)
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStaleRejection discards a result when a later-issued request for the
// same entrance has already been applied. Without it the last result to
// complete wins.
func WithStaleRejection() Option {
	return func(c *Coordinator) { c.rejectStale = true }
}

// WithActivationGate makes HandleInvalidationTrigger ignore triggers while
// the coordinator is inactive.
func WithActivationGate() Option {
	return func(c *Coordinator) { c.gateTriggers = true }
}

func WithRerouteHook(h RerouteHook) Option {
	return func(c *Coordinator) { c.reroute = h }
}

// Coordinator keeps the path cache in step with the terrain.
type Coordinator struct {
	registry     Registry
	engine       Engine
	cache        *Cache
	notifiers    []Notifier
	logger       logging.Logger
	rejectStale  bool
	gateTriggers bool
	reroute      RerouteHook

	seqs []atomic.Uint64 // last issued sequence per entrance

	// Held per entrance from cache write to the last notifier returning, so
	// observers see changes in the order they were stored.
	notifyMu []sync.Mutex

	mu      sync.Mutex
	state   State
	session uint64

	ctx    context.Context
	cancel context.CancelFunc

	flightMu sync.Mutex
	closed   bool
	inflight int
	idle     chan struct{} // closed while inflight == 0
}

// NewCoordinator sizes the cache to registry.EntranceCount() at construction.
func NewCoordinator(registry Registry, engine Engine, opts ...Option) *Coordinator {
	n := registry.EntranceCount()
	c := &Coordinator{
		registry: registry,
		engine:   engine,
		cache:    NewCache(n),
		logger:   logging.NoOpLogger{},
		seqs:     make([]atomic.Uint64, max(n, 0)),
		notifyMu: make([]sync.Mutex, max(n, 0)),
		idle:     make(chan struct{}),
	}
	close(c.idle)
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

func (c *Coordinator) EntranceCount() int { return c.cache.Len() }

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GetPath returns the cached path for an entrance.
func (c *Coordinator) GetPath(id int) (Path, error) {
	return c.cache.Get(id)
}

// GetAllPaths returns every cached path in entrance order.
func (c *Coordinator) GetAllPaths() []Path {
	return c.cache.All()
}

// RecomputeOne requests a fresh path for one entrance and returns immediately.
func (c *Coordinator) RecomputeOne(id int) error {
	if id < 0 || id >= c.cache.Len() {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidEntrance, id, c.cache.Len())
	}
	return c.issue(id, nil)
}

// RecomputeAll requests a fresh path for every entrance without waiting for any.
func (c *Coordinator) RecomputeAll() error {
	for id := 0; id < c.cache.Len(); id++ {
		if err := c.issue(id, nil); err != nil {
			return err
		}
	}
	return nil
}

// Activate starts a session: it requests every entrance's path and calls
// onAllComplete once all of them have a result, successful or not. It returns
// ErrDoubleActivation if an activation is already in progress.
func (c *Coordinator) Activate(onAllComplete func()) error {
	c.mu.Lock()
	if c.state == StateActivating {
		c.mu.Unlock()
		return ErrDoubleActivation
	}
	if c.isClosed() {
		c.mu.Unlock()
		return ErrClosed
	}
	c.state = StateActivating
	c.session++
	session := c.session
	c.mu.Unlock()

	n := c.cache.Len()
	start := time.Now()
	c.logger.Info("field activating", "entrances", n, "session", session)

	barrier := NewBarrier(n, func() {
		if c.finishActivation(session, start) && onAllComplete != nil {
			onAllComplete()
		}
	})
	for id := 0; id < n; id++ {
		if err := c.issue(id, barrier); err != nil {
			// Closed mid-activation; the barrier will never fire.
			c.mu.Lock()
			if c.session == session {
				c.state = StateInactive
			}
			c.mu.Unlock()
			return err
		}
	}
	return nil
}

// finishActivation reports whether session was still the pending one.
func (c *Coordinator) finishActivation(session uint64, start time.Time) bool {
	c.mu.Lock()
	current := c.session == session && c.state == StateActivating
	if current {
		c.state = StateActive
	}
	c.mu.Unlock()
	if current {
		c.logger.Info("field active", "session", session, "elapsed", time.Since(start))
	}
	return current
}

// Deactivate ends the session. Cached paths are kept.
func (c *Coordinator) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateActivating {
		return ErrActivationPending
	}
	c.state = StateInactive
	return nil
}

// HandleInvalidationTrigger reacts to a terrain edit by recomputing every
// entrance. Overlapping triggers are fine; each result is compared against
// whatever is cached when it lands.
func (c *Coordinator) HandleInvalidationTrigger() {
	if c.gateTriggers && c.State() == StateInactive {
		c.logger.Debug("terrain trigger ignored", "state", StateInactive.String())
		return
	}
	if err := c.RecomputeAll(); err != nil {
		c.logger.Warn("recompute after terrain change failed", "error", err)
	}
}

// HandleRerouteRequest accepts a reroute request. It has no effect on the
// cache; the request and any hook advice are logged.
func (c *Coordinator) HandleRerouteRequest(req RerouteRequest) {
	current, err := c.cache.Get(req.Entrance)
	if err != nil {
		c.logger.Warn("reroute request for unknown entrance", "enemy", req.Enemy, "entrance", req.Entrance)
		return
	}
	if c.reroute == nil {
		c.logger.Info("reroute requested", "enemy", req.Enemy, "entrance", req.Entrance)
		return
	}
	advice, err := c.reroute.Advise(req, current)
	if err != nil {
		c.logger.Warn("reroute hook failed", "enemy", req.Enemy, "entrance", req.Entrance, "error", err)
		return
	}
	c.logger.Info("reroute requested", "enemy", req.Enemy, "entrance", req.Entrance, "advice", advice)
}

// Bind subscribes the coordinator to terrain and reroute events on bus. The
// returned func unsubscribes all of them.
func (c *Coordinator) Bind(bus *events.Bus) func() {
	trigger := func(events.Event) { c.HandleInvalidationTrigger() }
	cancels := []func(){
		bus.Subscribe(events.KindBlocksPlaced, trigger),
		bus.Subscribe(events.KindBlockRemoved, trigger),
		bus.Subscribe(events.KindTerrainReplaced, trigger),
		bus.Subscribe(events.KindRepathEnemy, func(e events.Event) {
			if req, ok := e.Data.(events.RepathEnemy); ok {
				c.HandleRerouteRequest(RerouteRequest{Enemy: req.Enemy, Entrance: req.Entrance})
			}
		}),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// InFlight returns the number of requests whose result has not been applied yet.
func (c *Coordinator) InFlight() int {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	return c.inflight
}

// Wait blocks until no request is in flight or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.flightMu.Lock()
	idle := c.idle
	c.flightMu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops issuing requests, cancels outstanding ones and waits for their
// continuations to exit. Results that arrive after Close are dropped. An
// activation still pending is abandoned: the state returns to Inactive and
// its completion callback never runs.
func (c *Coordinator) Close(ctx context.Context) error {
	c.flightMu.Lock()
	if c.closed {
		c.flightMu.Unlock()
		return nil
	}
	c.closed = true
	c.flightMu.Unlock()

	c.mu.Lock()
	if c.state == StateActivating {
		c.state = StateInactive
		c.session++
		c.logger.Info("activation abandoned", "session", c.session-1)
	}
	c.mu.Unlock()

	c.cancel()
	return c.Wait(ctx)
}

func (c *Coordinator) isClosed() bool {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	return c.closed
}

func (c *Coordinator) issue(id int, b *Barrier) error {
	c.flightMu.Lock()
	if c.closed {
		c.flightMu.Unlock()
		return ErrClosed
	}
	if c.inflight == 0 {
		c.idle = make(chan struct{})
	}
	c.inflight++
	c.flightMu.Unlock()

	seq := c.seqs[id].Add(1)
	req := newPendingRequest(id, seq, c.registry.EntrancePosition(id), b)
	future := c.engine.RequestPath(c.ctx, c.registry.FieldCentre(), req.origin)
	go c.await(req, future)
	return nil
}

func (c *Coordinator) done() {
	c.flightMu.Lock()
	c.inflight--
	if c.inflight == 0 {
		close(c.idle)
	}
	c.flightMu.Unlock()
}

func (c *Coordinator) await(req *pendingRequest, future <-chan pathfinder.Result) {
	defer c.done()

	var (
		res pathfinder.Result
		ok  bool
	)
	select {
	case res, ok = <-future:
	case <-c.ctx.Done():
		return
	}
	if c.ctx.Err() != nil {
		return
	}
	if !ok {
		c.logger.Warn("engine dropped request", "entrance", req.entrance, "request_id", req.id)
	} else if res.Err != nil && !errors.Is(res.Err, pathfinder.ErrNoRoute) {
		c.logger.Debug("engine failure", "entrance", req.entrance, "request_id", req.id, "error", res.Err)
	}

	c.apply(req, resultPath(res, ok))
	if req.barrier != nil {
		req.barrier.Done()
	}
}

func (c *Coordinator) apply(req *pendingRequest, p Path) {
	mu := &c.notifyMu[req.entrance]
	mu.Lock()
	defer mu.Unlock()

	var prev Path
	if c.rejectStale {
		var applied bool
		prev, applied, _ = c.cache.setIfNewer(req.entrance, req.seq, p)
		if !applied {
			c.logger.Debug("stale result discarded", "entrance", req.entrance, "request_id", req.id, "seq", req.seq)
			return
		}
	} else {
		prev, _ = c.cache.Set(req.entrance, p)
	}

	changed := !prev.Equal(p)
	c.logger.Debug("path applied",
		"entrance", req.entrance,
		"request_id", req.id,
		"status", p.Status.String(),
		"waypoints", p.Len(),
		"changed", changed,
		"elapsed", time.Since(req.issued),
	)
	if !changed {
		return
	}
	for _, n := range c.notifiers {
		n.NotifyChanged(req.entrance, p.Clone())
	}
}
