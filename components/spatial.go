package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// CellKey addresses one cell of the registry grid.
type CellKey struct {
	X, Y int
}

// CellFor returns the key of the cell containing pos.
func CellFor(pos r2.Vec, cellSize float64) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X / cellSize)),
		Y: int(math.Floor(pos.Y / cellSize)),
	}
}
