package routing

import (
	"time"

	"github.com/google/uuid"
	"github.com/milk9111/fieldroutes/common"
	"github.com/milk9111/fieldroutes/pathfinder"
)

// pendingRequest lives from issue until its result has been applied.
type pendingRequest struct {
	id       string
	entrance int
	seq      uint64
	origin   common.Point
	barrier  *Barrier
	issued   time.Time
}

func newPendingRequest(entrance int, seq uint64, origin common.Point, b *Barrier) *pendingRequest {
	return &pendingRequest{
		id:       uuid.NewString(),
		entrance: entrance,
		seq:      seq,
		origin:   origin,
		barrier:  b,
		issued:   time.Now(),
	}
}

// resultPath maps an engine answer to cache state. Any failure, including a
// result channel that closed without a value, is unreachable.
func resultPath(res pathfinder.Result, ok bool) Path {
	if !ok || res.Err != nil {
		return Unreachable()
	}
	return Reachable(res.Waypoints...)
}
