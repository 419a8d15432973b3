package pathfinder

import (
	"container/heap"

	"github.com/milk9111/fieldroutes/common"
)

// Grid is what a search reads. *terrain.Snapshot satisfies it.
type Grid interface {
	InBounds(p common.Point) bool
	IsBlocked(p common.Point) bool
}

var neighborOffsets = [...]common.Point{
	{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1},
}

// Search runs A* on a 4-way grid from start to goal. It returns the path
// including both endpoints. maxNodes bounds the number of expanded nodes;
// zero means unbounded.
func Search(g Grid, start, goal common.Point, maxNodes int) ([]common.Point, error) {
	if !g.InBounds(start) || !g.InBounds(goal) {
		return nil, ErrOutOfBounds
	}
	if g.IsBlocked(start) || g.IsBlocked(goal) {
		return nil, ErrBlockedEndpoint
	}
	if start == goal {
		return []common.Point{start}, nil
	}

	open := &openSet{}
	heap.Init(open)

	cameFrom := make(map[common.Point]common.Point, 128)
	gScore := map[common.Point]int{start: 0}
	closed := make(map[common.Point]bool, 128)
	heap.Push(open, &openItem{pos: start, f: start.Manhattan(goal), g: 0})

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*openItem)
		if closed[cur.pos] {
			continue
		}
		if cur.pos == goal {
			return reconstructPath(cameFrom, start, goal), nil
		}
		closed[cur.pos] = true

		expanded++
		if maxNodes > 0 && expanded > maxNodes {
			return nil, ErrSearchLimit
		}

		for _, off := range neighborOffsets {
			n := cur.pos.Add(off)
			if closed[n] || g.IsBlocked(n) {
				continue
			}
			tentative := gScore[cur.pos] + 1
			if old, seen := gScore[n]; seen && tentative >= old {
				continue
			}
			cameFrom[n] = cur.pos
			gScore[n] = tentative
			heap.Push(open, &openItem{pos: n, f: tentative + n.Manhattan(goal), g: tentative})
		}
	}

	return nil, ErrNoRoute
}

func reconstructPath(cameFrom map[common.Point]common.Point, start, goal common.Point) []common.Point {
	path := make([]common.Point, 0, 32)
	cur := goal
	for {
		path = append(path, cur)
		if cur == start {
			break
		}
		cur = cameFrom[cur]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type openItem struct {
	pos   common.Point
	f     int
	g     int
	index int
}

type openSet []*openItem

func (o openSet) Len() int { return len(o) }

// Ties on f prefer the deeper node, which keeps results deterministic for a
// given grid and pushes the search toward the goal.
func (o openSet) Less(i, j int) bool {
	if o[i].f == o[j].f {
		return o[i].g > o[j].g
	}
	return o[i].f < o[j].f
}

func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openSet) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}

func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}
