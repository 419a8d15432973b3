package events

import (
	"time"

	"github.com/milk9111/fieldroutes/common"
)

// Kind identifies an event stream on the bus.
type Kind string

const (
	KindBlocksPlaced    Kind = "blocks_placed"
	KindBlockRemoved    Kind = "block_removed"
	KindTerrainReplaced Kind = "terrain_replaced"
	KindRepathEnemy     Kind = "repath_enemy"
	KindPathChanged     Kind = "path_changed"
	KindFieldReady      Kind = "field_ready"
	KindFieldReloaded   Kind = "field_reloaded"
)

// Event is a bus payload. Data holds one of the payload types below or, for
// KindPathChanged, a routing.PathChange.
type Event struct {
	Type Kind
	Data any
}

// TerrainEdit is the payload of KindBlocksPlaced, KindBlockRemoved and
// KindTerrainReplaced. For a replacement Cells holds every flipped cell.
type TerrainEdit struct {
	Cells   []common.Point
	Version uint64
}

// RepathEnemy asks for an enemy to be rerouted.
type RepathEnemy struct {
	Enemy    string
	Entrance int
}

// FieldReady is published once activation has produced a result for every entrance.
type FieldReady struct {
	Entrances int
	Elapsed   time.Duration
}

// FieldReloaded is published after a spec reload has been applied to the field.
type FieldReloaded struct {
	Name    string
	Placed  int
	Removed int
}
