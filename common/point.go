package common

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// Point is a cell coordinate on the field grid.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Manhattan returns the 4-way grid distance between p and o.
func (p Point) Manhattan(o Point) int {
	return Abs(p.X-o.X) + Abs(p.Y-o.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Vector returns the world-space centre of the cell.
func (p Point) Vector(cellSize float64) cp.Vector {
	half := cellSize * 0.5
	return cp.Vector{X: float64(p.X)*cellSize + half, Y: float64(p.Y)*cellSize + half}
}

// FromVector maps a world position to the cell containing it, clamped to a
// gridW x gridH grid.
func FromVector(v cp.Vector, cellSize float64, gridW, gridH int) Point {
	gx := int(math.Floor(v.X / cellSize))
	gy := int(math.Floor(v.Y / cellSize))
	return Point{X: Clamp(gx, 0, gridW-1), Y: Clamp(gy, 0, gridH-1)}
}
