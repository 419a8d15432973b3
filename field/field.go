// Package field is the defence field: its entrances, its centre and the
// terrain between them. It is the entrance registry the routing coordinator
// reads and the source of the terrain events that invalidate paths.
package field

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/fieldroutes/common"
	"github.com/milk9111/fieldroutes/events"
	"github.com/milk9111/fieldroutes/logging"
	"github.com/milk9111/fieldroutes/routing"
	"github.com/milk9111/fieldroutes/specs"
	"github.com/milk9111/fieldroutes/terrain"
)

// ErrLayoutChanged rejects a reload that moves entrances, the centre or the
// field bounds. Those are fixed for the lifetime of a Field.
var ErrLayoutChanged = errors.New("field: layout changed")

type Option func(*Field)

func WithLogger(l logging.Logger) Option {
	return func(f *Field) {
		if l != nil {
			f.logger = l
		}
	}
}

type Field struct {
	width     int
	height    int
	centre    common.Point
	entrances []common.Point
	names     []string

	grid   *terrain.Grid
	bus    *events.Bus
	logger logging.Logger

	applyMu  sync.Mutex
	mu       sync.RWMutex
	name     string
	cellSize float64

	unsubscribe func()
}

var _ routing.Registry = (*Field)(nil)

// New builds a field from spec. The initial terrain is in place before any
// event is published; from then on every terrain edit is published on bus.
func New(spec *specs.FieldSpec, bus *events.Bus, opts ...Option) (*Field, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	grid, err := terrain.NewGrid(spec.Width, spec.Height)
	if err != nil {
		return nil, fmt.Errorf("field: %w", err)
	}

	f := &Field{
		name:      spec.Name,
		width:     spec.Width,
		height:    spec.Height,
		cellSize:  spec.CellSize,
		centre:    spec.Centre,
		entrances: spec.EntrancePoints(),
		grid:      grid,
		bus:       bus,
		logger:    logging.NoOpLogger{},
	}
	for i, e := range spec.Entrances {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("entrance-%d", i)
		}
		f.names = append(f.names, name)
	}
	for _, opt := range opts {
		opt(f)
	}

	if _, err := grid.Place(blockedCells(spec)...); err != nil {
		return nil, fmt.Errorf("field: initial terrain: %w", err)
	}
	f.unsubscribe = grid.OnChange(f.publish)
	return f, nil
}

func (f *Field) publish(ch terrain.Change) {
	kind := events.KindBlocksPlaced
	switch ch.Kind {
	case terrain.ChangeRemoved:
		kind = events.KindBlockRemoved
	case terrain.ChangeReplaced:
		kind = events.KindTerrainReplaced
	}
	f.logger.Debug("terrain changed", "kind", ch.Kind.String(), "cells", len(ch.Cells), "version", ch.Version)
	f.bus.Publish(events.Event{Type: kind, Data: events.TerrainEdit{Cells: ch.Cells, Version: ch.Version}})
}

func blockedCells(spec *specs.FieldSpec) []common.Point {
	cells := terrain.Rasterize(spec.ObstacleBoxes(), spec.CellSize, spec.Width, spec.Height)
	cells = append(cells, spec.Blocks...)
	slices.SortFunc(cells, func(a, b common.Point) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	return slices.Compact(cells)
}

func (f *Field) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

func (f *Field) CellSize() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cellSize
}

func (f *Field) EntranceCount() int { return len(f.entrances) }

// EntrancePosition panics on an id outside [0, EntranceCount()); the
// coordinator validates ids before asking.
func (f *Field) EntrancePosition(id int) common.Point { return f.entrances[id] }

func (f *Field) EntranceName(id int) string { return f.names[id] }

func (f *Field) FieldCentre() common.Point { return f.centre }

// Grid exposes the terrain for snapshots and direct edits.
func (f *Field) Grid() *terrain.Grid { return f.grid }

// Place blocks cells, as a tower or wall being built.
func (f *Field) Place(cells ...common.Point) error {
	_, err := f.grid.Place(cells...)
	return err
}

// Remove frees cells.
func (f *Field) Remove(cells ...common.Point) error {
	_, err := f.grid.Remove(cells...)
	return err
}

// CellAt maps a world position onto the grid.
func (f *Field) CellAt(v cp.Vector) common.Point {
	return common.FromVector(v, f.CellSize(), f.width, f.height)
}

// WorldPath converts waypoints to world-space cell centres.
func (f *Field) WorldPath(waypoints []common.Point) []cp.Vector {
	size := f.CellSize()
	out := make([]cp.Vector, 0, len(waypoints))
	for _, p := range waypoints {
		out = append(out, p.Vector(size))
	}
	return out
}

// RequestReroute publishes an enemy reroute request.
func (f *Field) RequestReroute(enemy string, entrance int) {
	f.bus.Publish(events.Event{Type: events.KindRepathEnemy, Data: events.RepathEnemy{Enemy: enemy, Entrance: entrance}})
}

// Apply brings the terrain in line with spec. The terrain is rewritten in one
// grid edit, so a reload publishes at most one terrain event.
func (f *Field) Apply(spec *specs.FieldSpec) (events.FieldReloaded, error) {
	if err := spec.Validate(); err != nil {
		return events.FieldReloaded{}, err
	}
	if err := f.sameLayout(spec); err != nil {
		return events.FieldReloaded{}, err
	}

	f.applyMu.Lock()
	defer f.applyMu.Unlock()

	placed, removed, err := f.grid.Replace(blockedCells(spec)...)
	if err != nil {
		return events.FieldReloaded{}, fmt.Errorf("field: reload: %w", err)
	}

	f.mu.Lock()
	f.name = spec.Name
	f.cellSize = spec.CellSize
	f.mu.Unlock()

	summary := events.FieldReloaded{Name: spec.Name, Placed: len(placed), Removed: len(removed)}
	f.logger.Info("field reloaded", "name", spec.Name, "placed", summary.Placed, "removed", summary.Removed)
	f.bus.Publish(events.Event{Type: events.KindFieldReloaded, Data: summary})
	return summary, nil
}

func (f *Field) sameLayout(spec *specs.FieldSpec) error {
	if spec.Width != f.width || spec.Height != f.height {
		return fmt.Errorf("%w: size %dx%d, want %dx%d", ErrLayoutChanged, spec.Width, spec.Height, f.width, f.height)
	}
	if spec.Centre != f.centre {
		return fmt.Errorf("%w: centre %s, want %s", ErrLayoutChanged, spec.Centre, f.centre)
	}
	if !slices.Equal(spec.EntrancePoints(), f.entrances) {
		return fmt.Errorf("%w: entrances moved", ErrLayoutChanged)
	}
	return nil
}

// Close stops publishing terrain events.
func (f *Field) Close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
}
