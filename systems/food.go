package systems

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/savanna/components"
)

// FoodStore is the concurrent set of consumable food items.
// Items are few compared to agents, so searches are linear scans.
type FoodStore struct {
	mu      sync.Mutex
	items   []*components.Food
	nextID  uint64
	energy  int
	maxSize int
	terrain *Terrain
	bounds  r2.Vec
}

// NewFoodStore creates an empty store. Spawns inside rock are rejected.
// maxItems caps the store size (0 = unlimited).
func NewFoodStore(terrain *Terrain, energyValue, maxItems int) *FoodStore {
	return &FoodStore{
		terrain: terrain,
		energy:  energyValue,
		maxSize: maxItems,
	}
}

// WithBounds restricts spawns to the world rectangle [0,w]x[0,h].
func (s *FoodStore) WithBounds(w, h float64) *FoodStore {
	s.bounds = r2.Vec{X: w, Y: h}
	return s
}

func (s *FoodStore) inBounds(pos r2.Vec) bool {
	if s.bounds == (r2.Vec{}) {
		return true
	}
	return pos.X >= 0 && pos.Y >= 0 && pos.X <= s.bounds.X && pos.Y <= s.bounds.Y
}

// Spawn adds an item at pos. It reports false when pos is inside rock,
// outside the world or the store is full.
func (s *FoodStore) Spawn(pos r2.Vec) (*components.Food, bool) {
	if !s.inBounds(pos) || s.terrain.IsObstacle(pos) {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSize > 0 && len(s.items) >= s.maxSize {
		return nil, false
	}
	s.nextID++
	f := &components.Food{ID: s.nextID, Pos: pos, Energy: s.energy}
	s.items = append(s.items, f)
	return f, true
}

// SetEnergyValue changes the energy of items spawned from now on.
func (s *FoodStore) SetEnergyValue(v int) {
	s.mu.Lock()
	s.energy = v
	s.mu.Unlock()
}

// FindNearest returns the nearest unconsumed item strictly within radius of pos.
// The returned item is a copy; pass it to Consume to claim it.
func (s *FoodStore) FindNearest(pos r2.Vec, radius float64) (components.Food, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var nearest *components.Food
	best := radius
	for _, f := range s.items {
		if f.Consumed {
			continue
		}
		if d := Distance(pos, f.Pos); d < best {
			best = d
			nearest = f
		}
	}
	if nearest == nil {
		return components.Food{}, false
	}
	return *nearest, true
}

// Consume claims the item with the given ID. Exactly one of any number of
// concurrent callers succeeds; the item leaves the store on success.
func (s *FoodStore) Consume(item components.Food) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.items {
		if f.ID != item.ID {
			continue
		}
		if f.Consumed {
			return false
		}
		f.Consumed = true
		s.items = append(s.items[:i], s.items[i+1:]...)
		return true
	}
	return false
}

// All returns copies of every item for drawing.
func (s *FoodStore) All() []components.Food {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]components.Food, len(s.items))
	for i, f := range s.items {
		out[i] = *f
	}
	return out
}

// Count returns the number of items in the store.
func (s *FoodStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear removes every item.
func (s *FoodStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.items {
		f.Consumed = true
	}
	s.items = nil
}
