package terrain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/milk9111/fieldroutes/common"
)

var (
	ErrOutOfBounds = errors.New("terrain: cell out of bounds")
	ErrBadSize     = errors.New("terrain: invalid grid size")
)

// ChangeKind identifies terrain edits.
type ChangeKind uint8

const (
	ChangePlaced ChangeKind = iota + 1
	ChangeRemoved
	ChangeReplaced // cells both placed and removed in one edit
)

func (k ChangeKind) String() string {
	switch k {
	case ChangePlaced:
		return "placed"
	case ChangeRemoved:
		return "removed"
	case ChangeReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// Change describes one applied edit. Cells only lists cells whose state
// actually flipped.
type Change struct {
	Kind    ChangeKind
	Cells   []common.Point
	Version uint64
}

type Listener func(Change)

type listenerEntry struct {
	id int
	fn Listener
}

// Grid is the blocked-cell map of the field. It is safe for concurrent use;
// listeners run on the goroutine that performed the edit, after the grid lock
// has been released.
type Grid struct {
	mu      sync.RWMutex
	width   int
	height  int
	blocked []bool
	version uint64

	lmu       sync.Mutex
	listeners []listenerEntry
	nextID    int
}

func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, width, height)
	}
	return &Grid{
		width:   width,
		height:  height,
		blocked: make([]bool, width*height),
	}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(p common.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

// IsBlocked reports whether p blocks movement. Cells outside the grid are blocked.
func (g *Grid) IsBlocked(p common.Point) bool {
	if !g.InBounds(p) {
		return true
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.blocked[p.Y*g.width+p.X]
}

// Version increments on every edit that changed at least one cell.
func (g *Grid) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Place blocks the given cells and returns the ones that were previously free.
func (g *Grid) Place(cells ...common.Point) ([]common.Point, error) {
	return g.apply(ChangePlaced, cells)
}

// Remove frees the given cells and returns the ones that were previously blocked.
func (g *Grid) Remove(cells ...common.Point) ([]common.Point, error) {
	return g.apply(ChangeRemoved, cells)
}

// Set blocks or frees a single cell. It reports whether the cell changed.
func (g *Grid) Set(p common.Point, blocked bool) (bool, error) {
	kind := ChangeRemoved
	if blocked {
		kind = ChangePlaced
	}
	changed, err := g.apply(kind, []common.Point{p})
	return len(changed) > 0, err
}

func (g *Grid) apply(kind ChangeKind, cells []common.Point) ([]common.Point, error) {
	for _, c := range cells {
		if !g.InBounds(c) {
			return nil, fmt.Errorf("%w: %s", ErrOutOfBounds, c)
		}
	}

	want := kind == ChangePlaced
	g.mu.Lock()
	changed := make([]common.Point, 0, len(cells))
	for _, c := range cells {
		idx := c.Y*g.width + c.X
		if g.blocked[idx] == want {
			continue
		}
		g.blocked[idx] = want
		changed = append(changed, c)
	}
	if len(changed) > 0 {
		g.version++
	}
	version := g.version
	g.mu.Unlock()

	if len(changed) > 0 {
		g.emit(Change{Kind: kind, Cells: changed, Version: version})
	}
	return changed, nil
}

// Replace makes blocked exactly the given cells and frees every other cell,
// as a single edit with a single change event. It returns the cells that were
// newly blocked and the cells that were freed.
func (g *Grid) Replace(blocked ...common.Point) (placed, removed []common.Point, err error) {
	want := make([]bool, g.width*g.height)
	for _, c := range blocked {
		if !g.InBounds(c) {
			return nil, nil, fmt.Errorf("%w: %s", ErrOutOfBounds, c)
		}
		want[c.Y*g.width+c.X] = true
	}

	g.mu.Lock()
	for idx, b := range want {
		if g.blocked[idx] == b {
			continue
		}
		p := common.Point{X: idx % g.width, Y: idx / g.width}
		if b {
			placed = append(placed, p)
		} else {
			removed = append(removed, p)
		}
		g.blocked[idx] = b
	}
	changed := len(placed) + len(removed)
	if changed > 0 {
		g.version++
	}
	version := g.version
	g.mu.Unlock()

	switch {
	case changed == 0:
	case len(removed) == 0:
		g.emit(Change{Kind: ChangePlaced, Cells: placed, Version: version})
	case len(placed) == 0:
		g.emit(Change{Kind: ChangeRemoved, Cells: removed, Version: version})
	default:
		cells := make([]common.Point, 0, changed)
		cells = append(append(cells, placed...), removed...)
		g.emit(Change{Kind: ChangeReplaced, Cells: cells, Version: version})
	}
	return placed, removed, nil
}

// Blocked lists every blocked cell in row-major order.
func (g *Grid) Blocked() []common.Point {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]common.Point, 0, 16)
	for idx, b := range g.blocked {
		if b {
			out = append(out, common.Point{X: idx % g.width, Y: idx / g.width})
		}
	}
	return out
}

// OnChange registers l for every applied edit. The returned func unregisters it.
func (g *Grid) OnChange(l Listener) func() {
	if l == nil {
		return func() {}
	}
	g.lmu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners = append(g.listeners, listenerEntry{id: id, fn: l})
	g.lmu.Unlock()

	return func() {
		g.lmu.Lock()
		defer g.lmu.Unlock()
		for i, e := range g.listeners {
			if e.id == id {
				g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

func (g *Grid) emit(c Change) {
	g.lmu.Lock()
	ls := make([]listenerEntry, len(g.listeners))
	copy(ls, g.listeners)
	g.lmu.Unlock()

	for _, l := range ls {
		l.fn(c)
	}
}
