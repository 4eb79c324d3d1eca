package components

import "gonum.org/v1/gonum/spatial/r2"

// Food is a consumable item in the food store.
// Consumed is only written by the store under its lock.
type Food struct {
	ID       uint64
	Pos      r2.Vec
	Energy   int
	Consumed bool
}

// TerrainKind tags a terrain region.
type TerrainKind uint8

const (
	TerrainForest TerrainKind = iota
	TerrainSwamp
	TerrainRock
)

func (k TerrainKind) String() string {
	switch k {
	case TerrainForest:
		return "forest"
	case TerrainSwamp:
		return "swamp"
	case TerrainRock:
		return "rock"
	}
	return "unknown"
}
