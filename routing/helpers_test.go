package routing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/milk9111/fieldroutes/common"
	"github.com/milk9111/fieldroutes/pathfinder"
	"github.com/stretchr/testify/require"
)

var (
	ptA = common.Point{X: 1, Y: 1}
	ptB = common.Point{X: 2, Y: 1}
	ptC = common.Point{X: 3, Y: 1}
)

type staticRegistry struct {
	entrances []common.Point
	centre    common.Point
}

func (r staticRegistry) EntranceCount() int                   { return len(r.entrances) }
func (r staticRegistry) EntrancePosition(id int) common.Point { return r.entrances[id] }
func (r staticRegistry) FieldCentre() common.Point            { return r.centre }

// lineRegistry places n entrances on row 0 and the centre below them.
func lineRegistry(n int) staticRegistry {
	r := staticRegistry{centre: common.Point{X: 0, Y: 10}}
	for i := 0; i < n; i++ {
		r.entrances = append(r.entrances, common.Point{X: i, Y: 0})
	}
	return r
}

type fakeRequest struct {
	dest   common.Point
	origin common.Point
	out    chan pathfinder.Result
}

func (r *fakeRequest) succeed(wp ...common.Point) {
	r.out <- pathfinder.Result{Waypoints: wp, Origin: r.origin}
	close(r.out)
}

func (r *fakeRequest) fail() {
	r.out <- pathfinder.Result{Origin: r.origin, Err: pathfinder.ErrNoRoute}
	close(r.out)
}

func (r *fakeRequest) drop() { close(r.out) }

// fakeEngine records every request. With respond set it answers immediately;
// otherwise the test completes requests by hand.
type fakeEngine struct {
	mu       sync.Mutex
	requests []*fakeRequest
	total    int
	respond  func(origin common.Point) pathfinder.Result
}

func (e *fakeEngine) RequestPath(_ context.Context, dest, origin common.Point) <-chan pathfinder.Result {
	r := &fakeRequest{dest: dest, origin: origin, out: make(chan pathfinder.Result, 1)}
	e.mu.Lock()
	e.requests = append(e.requests, r)
	e.total++
	respond := e.respond
	e.mu.Unlock()

	if respond != nil {
		r.out <- respond(origin)
		close(r.out)
	}
	return r.out
}

// take returns the requests recorded since the last call.
func (e *fakeEngine) take() []*fakeRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.requests
	e.requests = nil
	return out
}

func (e *fakeEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

type recorder struct {
	mu      sync.Mutex
	changes []PathChange
}

func (r *recorder) NotifyChanged(entrance int, p Path) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, PathChange{Entrance: entrance, Path: p})
}

func (r *recorder) all() []PathChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PathChange(nil), r.changes...)
}

func (r *recorder) forEntrance(id int) []Path {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Path
	for _, c := range r.changes {
		if c.Entrance == id {
			out = append(out, c.Path)
		}
	}
	return out
}

func waitIdle(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func closeOnCleanup(t *testing.T, c *Coordinator) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})
}

// activated runs Activate and returns a channel closed by the completion callback.
func activated(t *testing.T, c *Coordinator) (<-chan struct{}, *int) {
	t.Helper()
	done := make(chan struct{})
	calls := new(int)
	var mu sync.Mutex
	require.NoError(t, c.Activate(func() {
		mu.Lock()
		defer mu.Unlock()
		*calls++
		if *calls == 1 {
			close(done)
		}
	}))
	return done, calls
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}
