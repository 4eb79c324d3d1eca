package systems

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
)

// fakeHost records spawn requests and signals instead of running units.
type fakeHost struct {
	mu      sync.Mutex
	refuse  bool
	spawned []spawnRequest
	sent    map[components.Handle][]Signal
}

type spawnRequest struct {
	kind components.Kind
	args components.SpawnArgs
}

func newFakeHost() *fakeHost {
	return &fakeHost{sent: make(map[components.Handle][]Signal)}
}

func (h *fakeHost) Spawn(kind components.Kind, args components.SpawnArgs) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refuse {
		return errRefusedForTest
	}
	h.spawned = append(h.spawned, spawnRequest{kind: kind, args: args})
	return nil
}

func (h *fakeHost) Send(to components.Handle, sig Signal) {
	h.mu.Lock()
	h.sent[to] = append(h.sent[to], sig)
	h.mu.Unlock()
}

func (h *fakeHost) spawnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.spawned)
}

type testError string

func (e testError) Error() string { return string(e) }

const errRefusedForTest = testError("refused")

// testConfig returns the defaults with reproduction switched off so tests
// that are not about reproduction stay deterministic.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Prey.ReproChance = 0
	cfg.Predator.ReproChance = 0
	return cfg
}

// newTestEnv builds an isolated registry, food store and fake host.
func newTestEnv(cfg *config.Config, terrain *Terrain) (Env, *fakeHost) {
	host := newFakeHost()
	return Env{
		Config:   cfg,
		Registry: NewRegistry(cfg, terrain),
		Terrain:  terrain,
		Food:     NewFoodStore(terrain, cfg.Food.EnergyValue, cfg.Food.MaxItems).WithBounds(cfg.World.Width, cfg.World.Height),
		Host:     host,
	}, host
}

// square returns a closed square outline centered at c.
func square(c r2.Vec, half float64) []r2.Vec {
	return []r2.Vec{
		{X: c.X - half, Y: c.Y - half},
		{X: c.X + half, Y: c.Y - half},
		{X: c.X + half, Y: c.Y + half},
		{X: c.X - half, Y: c.Y + half},
	}
}

func squareRegion(kind components.TerrainKind, c r2.Vec, half float64) Region {
	return NewRegion(kind, c, square(c, half))
}
