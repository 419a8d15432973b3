package field

import (
	"sync"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/fieldroutes/common"
	"github.com/milk9111/fieldroutes/events"
	"github.com/milk9111/fieldroutes/specs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	mu  sync.Mutex
	got []events.Event
}

func (c *capture) on(bus *events.Bus, kinds ...events.Kind) {
	for _, k := range kinds {
		bus.Subscribe(k, func(e events.Event) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.got = append(c.got, e)
		})
	}
}

func (c *capture) events() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event(nil), c.got...)
}

func smallSpec() *specs.FieldSpec {
	return &specs.FieldSpec{
		Name:     "small",
		Width:    6,
		Height:   4,
		CellSize: 10,
		Centre:   common.Point{X: 5, Y: 3},
		Entrances: []specs.EntranceSpec{
			{Name: "gate", X: 0, Y: 0},
			{X: 0, Y: 3},
		},
		Obstacles: []specs.ObstacleSpec{{X: 20, Y: 0, W: 10, H: 20}},
		Blocks:    []common.Point{{X: 4, Y: 2}, {X: 2, Y: 1}},
	}
}

func TestNewBuildsRegistryAndTerrain(t *testing.T) {
	bus := events.NewBus()
	var c capture
	c.on(bus, events.KindBlocksPlaced, events.KindBlockRemoved)

	f, err := New(smallSpec(), bus)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, 2, f.EntranceCount())
	assert.Equal(t, common.Point{X: 0, Y: 3}, f.EntrancePosition(1))
	assert.Equal(t, common.Point{X: 5, Y: 3}, f.FieldCentre())
	assert.Equal(t, "gate", f.EntranceName(0))
	assert.Equal(t, "entrance-1", f.EntranceName(1))

	assert.Equal(t, []common.Point{{X: 2, Y: 0}, {X: 2, Y: 1}, {X: 4, Y: 2}}, f.Grid().Blocked())
	assert.Empty(t, c.events(), "initial terrain is not an edit")
}

func TestEditsArePublished(t *testing.T) {
	bus := events.NewBus()
	var c capture
	c.on(bus, events.KindBlocksPlaced, events.KindBlockRemoved)

	f, err := New(smallSpec(), bus)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Place(common.Point{X: 3, Y: 3}, common.Point{X: 2, Y: 0}))
	require.NoError(t, f.Remove(common.Point{X: 4, Y: 2}))
	require.NoError(t, f.Place(common.Point{X: 2, Y: 0}))

	got := c.events()
	require.Len(t, got, 2)
	assert.Equal(t, events.KindBlocksPlaced, got[0].Type)
	assert.Equal(t, []common.Point{{X: 3, Y: 3}}, got[0].Data.(events.TerrainEdit).Cells)
	assert.Equal(t, events.KindBlockRemoved, got[1].Type)

	f.Close()
	require.NoError(t, f.Place(common.Point{X: 1, Y: 1}))
	assert.Len(t, c.events(), 2)
}

func TestApplyDiffsTerrain(t *testing.T) {
	bus := events.NewBus()
	var c capture
	f, err := New(smallSpec(), bus)
	require.NoError(t, err)
	defer f.Close()
	c.on(bus, events.KindBlocksPlaced, events.KindBlockRemoved, events.KindTerrainReplaced, events.KindFieldReloaded)

	// subscribers see the reload as one edit with the new terrain fully applied
	var seen [][]common.Point
	bus.Subscribe(events.KindTerrainReplaced, func(events.Event) {
		seen = append(seen, f.Grid().Blocked())
	})
	before := f.Grid().Version()

	next := smallSpec()
	next.Name = "small-v2"
	next.Obstacles = nil
	next.Blocks = []common.Point{{X: 4, Y: 2}, {X: 3, Y: 0}}

	summary, err := f.Apply(next)
	require.NoError(t, err)
	assert.Equal(t, events.FieldReloaded{Name: "small-v2", Placed: 1, Removed: 2}, summary)
	assert.Equal(t, []common.Point{{X: 3, Y: 0}, {X: 4, Y: 2}}, f.Grid().Blocked())
	assert.Equal(t, "small-v2", f.Name())

	kinds := []events.Kind{}
	for _, e := range c.events() {
		kinds = append(kinds, e.Type)
	}
	assert.Equal(t, []events.Kind{events.KindTerrainReplaced, events.KindFieldReloaded}, kinds)

	edit, ok := c.events()[0].Data.(events.TerrainEdit)
	require.True(t, ok)
	assert.ElementsMatch(t, []common.Point{{X: 3, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}}, edit.Cells)
	assert.Equal(t, before+1, edit.Version)
	assert.Equal(t, [][]common.Point{{{X: 3, Y: 0}, {X: 4, Y: 2}}}, seen)

	// same spec again changes nothing
	summary, err = f.Apply(next)
	require.NoError(t, err)
	assert.Zero(t, summary.Placed+summary.Removed)
	assert.Len(t, c.events(), 3)
}

func TestApplyRejectsLayoutChanges(t *testing.T) {
	f, err := New(smallSpec(), events.NewBus())
	require.NoError(t, err)
	defer f.Close()

	tests := []struct {
		name   string
		mutate func(*specs.FieldSpec)
	}{
		{"size", func(s *specs.FieldSpec) { s.Width = 7 }},
		{"centre", func(s *specs.FieldSpec) { s.Centre = common.Point{X: 4, Y: 3} }},
		{"entrance_moved", func(s *specs.FieldSpec) { s.Entrances[1].Y = 2 }},
		{"entrance_added", func(s *specs.FieldSpec) { s.Entrances = append(s.Entrances, specs.EntranceSpec{X: 5, Y: 0}) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := smallSpec()
			tc.mutate(s)
			_, err := f.Apply(s)
			assert.ErrorIs(t, err, ErrLayoutChanged)
		})
	}

	bad := smallSpec()
	bad.Blocks = []common.Point{{X: 9, Y: 9}}
	_, err = f.Apply(bad)
	assert.ErrorIs(t, err, specs.ErrInvalidSpec)
}

func TestWorldConversions(t *testing.T) {
	f, err := New(smallSpec(), nil)
	require.NoError(t, err)

	assert.Equal(t, common.Point{X: 3, Y: 1}, f.CellAt(cp.Vector{X: 35, Y: 12}))
	assert.Equal(t, common.Point{X: 5, Y: 0}, f.CellAt(cp.Vector{X: 500, Y: -4}))
	assert.Equal(t, []cp.Vector{{X: 5, Y: 5}, {X: 15, Y: 5}}, f.WorldPath([]common.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}))
}

func TestRequestReroutePublishes(t *testing.T) {
	bus := events.NewBus()
	var c capture
	c.on(bus, events.KindRepathEnemy)
	f, err := New(smallSpec(), bus)
	require.NoError(t, err)

	f.RequestReroute("gooey-1", 1)
	got := c.events()
	require.Len(t, got, 1)
	assert.Equal(t, events.RepathEnemy{Enemy: "gooey-1", Entrance: 1}, got[0].Data)
}
