// Package systems provides the simulation stores and the agent decision cores.
package systems

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
)

// Registry is the authoritative store of live agents with spatial queries.
//
// Records live in an ECS world; the grid maps cell keys to handle lists. One
// mutex serializes every mutation and every multi-cell read, so re-bucketing
// is atomic with respect to queries: an agent is never seen in zero or two
// cells. The registry also owns the death tally and the season clock.
type Registry struct {
	mu sync.Mutex

	world  *ecs.World
	agents *ecs.Map1[components.Agent]
	filter *ecs.Filter1[components.Agent]
	cells  map[components.CellKey][]components.Handle

	cellSize         float64
	width, height    float64
	contactDistance  float64
	relocateAttempts int
	maxEnergy        [2]int // indexed by Kind
	terrain          *Terrain
	rng              *rand.Rand

	numPrey int
	numPred int
	stats   components.DeathStats
	season  SeasonClock
}

// NewRegistry creates an empty registry for the configured world.
// terrain may be nil for an open plain.
func NewRegistry(cfg *config.Config, terrain *Terrain) *Registry {
	world := ecs.NewWorld()
	return &Registry{
		world:            world,
		agents:           ecs.NewMap1[components.Agent](world),
		filter:           ecs.NewFilter1[components.Agent](world),
		cells:            make(map[components.CellKey][]components.Handle),
		cellSize:         cfg.Grid.CellSize,
		width:            cfg.World.Width,
		height:           cfg.World.Height,
		contactDistance:  cfg.Grid.ContactDistance,
		relocateAttempts: cfg.Grid.RelocateAttempts,
		maxEnergy:        [2]int{cfg.Prey.EnergyMax, cfg.Predator.EnergyMax},
		terrain:          terrain,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
		season:           NewSeasonClock(cfg.Season.Duration),
	}
}

// CellSize returns the grid cell size.
func (r *Registry) CellSize() float64 { return r.cellSize }

// Bounds returns the world dimensions.
func (r *Registry) Bounds() (w, h float64) { return r.width, r.height }

// Register adds a new agent and returns its handle.
// A position inside rock is relocated to a random point; when every retry
// also lands in rock the last candidate is accepted.
func (r *Registry) Register(kind components.Kind, pos r2.Vec, energy int, speed, vision float64) components.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos = ClampToBounds(pos, r.width, r.height)
	for i := 0; i < r.relocateAttempts && r.terrain.IsObstacle(pos); i++ {
		pos = r2.Vec{X: r.rng.Float64() * r.width, Y: r.rng.Float64() * r.height}
	}

	cell := components.CellFor(pos, r.cellSize)
	rec := components.Agent{
		Kind:   kind,
		Pos:    pos,
		Energy: r.clampEnergy(kind, energy),
		Speed:  speed,
		Vision: vision,
		Cell:   cell,
	}
	h := r.agents.NewEntity(&rec)
	r.cells[cell] = append(r.cells[cell], h)

	if kind == components.KindPrey {
		r.numPrey++
	} else {
		r.numPred++
	}
	return h
}

// Unregister removes the agent and its grid membership.
// It reports whether the handle was live; repeated calls are no-ops.
func (r *Registry) Unregister(h components.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unregisterLocked(h)
}

// Remove unregisters the agent and tallies cause, but only if the handle was
// still live. Concurrent removals of one agent tally exactly one death.
func (r *Registry) Remove(h components.Handle, cause components.DeathCause) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.unregisterLocked(h) {
		return false
	}
	r.stats.Record(cause)
	return true
}

// Capture removes prey on behalf of hunter and tallies cause. Nothing is
// removed unless both are still live, so a hunter that was unregistered
// mid-cycle cannot score. hunterLive reports the hunter's state at the time.
func (r *Registry) Capture(hunter, prey components.Handle, cause components.DeathCause) (removed, hunterLive bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hunter == components.NoHandle || !r.world.Alive(hunter) {
		return false, false
	}
	if !r.unregisterLocked(prey) {
		return false, true
	}
	r.stats.Record(cause)
	return true, true
}

func (r *Registry) unregisterLocked(h components.Handle) bool {
	if h == components.NoHandle || !r.world.Alive(h) {
		return false
	}
	rec := r.agents.Get(h)
	r.removeFromCell(rec.Cell, h)
	if rec.Kind == components.KindPrey {
		r.numPrey--
	} else {
		r.numPred--
	}
	r.world.RemoveEntity(h)
	return true
}

// removeFromCell splices h out of the cell's handle list.
func (r *Registry) removeFromCell(key components.CellKey, h components.Handle) {
	list := r.cells[key]
	for i, e := range list {
		if e == h {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.cells, key)
	} else {
		r.cells[key] = list
	}
}

// UpdatePosition writes a new position and energy for the agent.
//
// The target is clamped to the world first. A clamped target inside rock is
// rejected and the stored position is kept; the energy is still written.
// Otherwise the record is re-filed if its cell changed. The stored position is returned;
// ok is false when the handle is no longer registered.
func (r *Registry) UpdatePosition(h components.Handle, pos r2.Vec, energy int) (stored r2.Vec, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h == components.NoHandle || !r.world.Alive(h) {
		return pos, false
	}
	rec := r.agents.Get(h)
	rec.Energy = r.clampEnergy(rec.Kind, energy)

	pos = ClampToBounds(pos, r.width, r.height)
	if r.terrain.IsObstacle(pos) {
		return rec.Pos, true
	}
	rec.Pos = pos

	if cell := components.CellFor(pos, r.cellSize); cell != rec.Cell {
		r.removeFromCell(rec.Cell, h)
		r.cells[cell] = append(r.cells[cell], h)
		rec.Cell = cell
	}
	return pos, true
}

// QueryNearby returns every agent within radius of center, excluding the
// requester. It scans the square window of cells of half-width
// ceil(radius/cellSize) around the center's cell and filters by exact distance.
func (r *Registry) QueryNearby(exclude components.Handle, center r2.Vec, radius float64) []components.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queryLocked(nil, exclude, center, radius)
}

func (r *Registry) queryLocked(dst []components.Snapshot, exclude components.Handle, center r2.Vec, radius float64) []components.Snapshot {
	origin := components.CellFor(center, r.cellSize)
	span := int(math.Ceil(radius / r.cellSize))

	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			key := components.CellKey{X: origin.X + dx, Y: origin.Y + dy}
			for _, h := range r.cells[key] {
				if h == exclude {
					continue
				}
				rec := r.agents.Get(h)
				if Distance(rec.Pos, center) <= radius {
					dst = append(dst, snapshotOf(h, rec))
				}
			}
		}
	}
	return dst
}

// QueryPreyNear returns the first prey within the contact distance of pos.
func (r *Registry) QueryPreyNear(pos r2.Vec) (components.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.queryLocked(nil, components.NoHandle, pos, r.contactDistance) {
		if s.IsPrey() {
			return s, true
		}
	}
	return components.Snapshot{}, false
}

// Get returns a snapshot of one agent.
func (r *Registry) Get(h components.Handle) (components.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h == components.NoHandle || !r.world.Alive(h) {
		return components.Snapshot{}, false
	}
	return snapshotOf(h, r.agents.Get(h)), true
}

// Contains reports whether h is a live agent.
func (r *Registry) Contains(h components.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return h != components.NoHandle && r.world.Alive(h)
}

// All returns snapshots of every live agent.
func (r *Registry) All() []components.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]components.Snapshot, 0, r.numPrey+r.numPred)
	query := r.filter.Query()
	for query.Next() {
		out = append(out, snapshotOf(query.Entity(), query.Get()))
	}
	return out
}

// PreyCount returns the number of live prey.
func (r *Registry) PreyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numPrey
}

// PredatorCount returns the number of live predators.
func (r *Registry) PredatorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numPred
}

// Len returns the number of live agents.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numPrey + r.numPred
}

// RecordDeath tallies a death that did not go through Remove.
func (r *Registry) RecordDeath(cause components.DeathCause) {
	r.mu.Lock()
	r.stats.Record(cause)
	r.mu.Unlock()
}

// Stats returns a copy of the death tally.
func (r *Registry) Stats() components.DeathStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// ResetStats zeroes the death tally.
func (r *Registry) ResetStats() {
	r.mu.Lock()
	r.stats = components.DeathStats{}
	r.mu.Unlock()
}

// AdvanceSeason moves the season clock one tick and returns the current
// season and whether it changed.
func (r *Registry) AdvanceSeason() (components.Season, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := r.season.Advance()
	return r.season.Season(), changed
}

// Season returns the current season.
func (r *Registry) Season() components.Season {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.season.Season()
}

// SeasonTick returns the number of environment ticks since the last reset.
func (r *Registry) SeasonTick() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.season.Tick()
}

// Clear removes every agent and grid entry. When resetClock is set the death
// tally and the season clock start over as well.
func (r *Registry) Clear(resetClock bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var live []components.Handle
	query := r.filter.Query()
	for query.Next() {
		live = append(live, query.Entity())
	}
	for _, h := range live {
		r.world.RemoveEntity(h)
	}
	r.cells = make(map[components.CellKey][]components.Handle)
	r.numPrey = 0
	r.numPred = 0

	if resetClock {
		r.stats = components.DeathStats{}
		r.season.Reset()
	}
}

func (r *Registry) clampEnergy(kind components.Kind, energy int) int {
	return clampInt(energy, 0, r.maxEnergy[kind])
}

func snapshotOf(h components.Handle, rec *components.Agent) components.Snapshot {
	return components.Snapshot{
		Handle: h,
		Kind:   rec.Kind,
		Pos:    rec.Pos,
		Energy: rec.Energy,
		Speed:  rec.Speed,
		Vision: rec.Vision,
	}
}
