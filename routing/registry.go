package routing

import (
	"context"

	"github.com/milk9111/fieldroutes/common"
	"github.com/milk9111/fieldroutes/pathfinder"
)

// Registry supplies the fixed entrance layout. Entrance ids are dense in
// [0, EntranceCount()). *field.Field implements it.
type Registry interface {
	EntranceCount() int
	EntrancePosition(id int) common.Point
	FieldCentre() common.Point
}

// Engine computes one path per request. The returned channel must deliver at
// most one Result; a channel closed without a value counts as a failure.
// *pathfinder.Engine implements it.
type Engine interface {
	RequestPath(ctx context.Context, dest, origin common.Point) <-chan pathfinder.Result
}
