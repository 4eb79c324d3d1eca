package game

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/systems"
)

// Read-only accessors for renderers and other collaborators. All of them
// return copies and are safe to call from any goroutine.

// Agents returns a snapshot of every live agent.
func (s *Simulation) Agents() []components.Snapshot { return s.registry.All() }

// Foods returns a snapshot of every unconsumed food item.
func (s *Simulation) Foods() []components.Food { return s.food.All() }

// TerrainShapes returns the terrain regions.
func (s *Simulation) TerrainShapes() []systems.Region { return s.terrain.Regions() }

// PreyCount returns the number of live prey.
func (s *Simulation) PreyCount() int { return s.registry.PreyCount() }

// PredatorCount returns the number of live predators.
func (s *Simulation) PredatorCount() int { return s.registry.PredatorCount() }

// FoodCount returns the number of unconsumed food items.
func (s *Simulation) FoodCount() int { return s.food.Count() }

// Stats returns the death tally since the last reset.
func (s *Simulation) Stats() components.DeathStats { return s.registry.Stats() }

// Season returns the current season.
func (s *Simulation) Season() components.Season { return s.registry.Season() }

// Config returns the active configuration. Callers must not modify it.
func (s *Simulation) Config() *config.Config { return s.config() }

// SpawnFood adds one food item at pos. It reports false when pos is inside
// rock, outside the world or the store is full.
func (s *Simulation) SpawnFood(pos r2.Vec) bool {
	_, ok := s.food.Spawn(pos)
	return ok
}

// SpawnFoodBatch drops the configured manual batch of food at random
// positions and returns how many items landed.
func (s *Simulation) SpawnFoodBatch() int {
	cfg := s.config()
	n := 0
	for i := 0; i < cfg.Food.ManualBatch; i++ {
		if s.SpawnFood(s.randomPoint(cfg.Food.SpawnMargin)) {
			n++
		}
	}
	return n
}

// ResetStats zeroes the death tally.
func (s *Simulation) ResetStats() {
	s.registry.ResetStats()
	s.collector.ResetBaseline()
}

// SetConfig swaps the configuration. Agents spawned afterwards and the next
// environment tick use it; live agents keep the values they started with.
// Grid and world dimensions are fixed at construction.
func (s *Simulation) SetConfig(cfg *config.Config) {
	s.cfg.Store(cfg)
	slog.Info("config updated")
}
