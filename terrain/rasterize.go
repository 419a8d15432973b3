package terrain

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/fieldroutes/common"
)

// Rasterize returns the cells of a width x height grid covered by the given
// world-space boxes. Boxes that only touch a cell edge do not cover it.
// The result is in row-major order without duplicates.
func Rasterize(obstacles []cp.BB, cellSize float64, width, height int) []common.Point {
	if cellSize <= 0 || width <= 0 || height <= 0 {
		return nil
	}

	covered := make([]bool, width*height)
	for _, bb := range obstacles {
		if bb.R <= bb.L || bb.T <= bb.B {
			continue
		}
		startX := int(math.Floor(bb.L / cellSize))
		startY := int(math.Floor(bb.B / cellSize))
		endX := int(math.Floor((bb.R - 0.001) / cellSize))
		endY := int(math.Floor((bb.T - 0.001) / cellSize))

		startX = max(startX, 0)
		startY = max(startY, 0)
		endX = min(endX, width-1)
		endY = min(endY, height-1)

		for y := startY; y <= endY; y++ {
			for x := startX; x <= endX; x++ {
				covered[y*width+x] = true
			}
		}
	}

	out := make([]common.Point, 0, 16)
	for idx, c := range covered {
		if c {
			out = append(out, common.Point{X: idx % width, Y: idx / width})
		}
	}
	return out
}
