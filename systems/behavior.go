package systems

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
)

// Signal is a point-to-point message delivered to a unit's inbox.
type Signal uint8

const (
	// SignalDie tells a captured prey to terminate instead of lingering.
	SignalDie Signal = iota + 1
)

// Host is the runtime that creates decision-core units and routes signals
// between them.
type Host interface {
	// Spawn starts a new unit asynchronously. An error means the runtime
	// refused the unit; callers treat it as "no effect this cycle".
	Spawn(kind components.Kind, args components.SpawnArgs) error
	// Send delivers sig to the unit owning handle. It never blocks.
	Send(to components.Handle, sig Signal)
}

// Recorder receives per-event telemetry from decision cores.
// Implementations must be safe for concurrent use.
type Recorder interface {
	RecordBirth(kind components.Kind)
	RecordForage(energy int)
	RecordContestLost(kind components.Kind)
}

type nopRecorder struct{}

func (nopRecorder) RecordBirth(components.Kind)       {}
func (nopRecorder) RecordForage(int)                  {}
func (nopRecorder) RecordContestLost(components.Kind) {}

// Env bundles the shared stores a decision core works against.
// Every core receives its Env at construction; nothing is process-global.
type Env struct {
	Config   *config.Config
	Registry *Registry
	Terrain  *Terrain
	Food     *FoodStore
	Host     Host
	Recorder Recorder
}

func (e Env) recorder() Recorder {
	if e.Recorder == nil {
		return nopRecorder{}
	}
	return e.Recorder
}

// Core is one agent's decision loop.
type Core interface {
	Handle() components.Handle
	Kind() components.Kind
	// Step runs one perceive → decide → act → write-back cycle and reports
	// whether the agent is still alive.
	Step() bool
	// Shutdown unregisters the agent without tallying a death.
	Shutdown()
}

// Run drives core at the given cadence until it dies or ctx is cancelled.
// paused is checked at the top of every cycle; a paused unit skips the
// cycle without blocking.
func Run(ctx context.Context, core Core, delay time.Duration, paused func() bool) {
	if delay <= 0 {
		delay = time.Millisecond
	}
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			core.Shutdown()
			return
		default:
		}

		if paused == nil || !paused() {
			if !core.Step() {
				return
			}
		}

		select {
		case <-ctx.Done():
			core.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

var seedCounter atomic.Int64

// newRNG returns an independent generator for one unit.
func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano() + seedCounter.Add(7919)))
}

// body is the state and capability set shared by both decision cores:
// spawn, perceive, act, die.
type body struct {
	env     Env
	handle  components.Handle
	kind    components.Kind
	pos     r2.Vec
	energy  int
	genes   components.Genetics
	stamina int
	heading float64
	rng     *rand.Rand
	dead    bool
}

func newBody(env Env, kind components.Kind, args components.SpawnArgs, energy, stamina int, defaults components.Genetics) body {
	genes := defaults
	if args.Genetics != nil {
		genes = *args.Genetics
	}
	b := body{
		env:     env,
		kind:    kind,
		energy:  energy,
		genes:   genes,
		stamina: stamina,
		rng:     newRNG(),
	}
	b.heading = b.rng.Float64() * 2 * math.Pi
	b.handle = env.Registry.Register(kind, args.Pos, energy, genes.Speed, genes.Vision)

	// The registry may have relocated the agent out of rock
	if s, ok := env.Registry.Get(b.handle); ok {
		b.pos = s.Pos
	} else {
		b.pos = args.Pos
	}
	return b
}

func (b *body) Handle() components.Handle { return b.handle }
func (b *body) Kind() components.Kind     { return b.kind }

// Shutdown removes the agent without counting a death.
func (b *body) Shutdown() {
	b.dead = true
	b.env.Registry.Unregister(b.handle)
}

// perceive returns the agents this body can see. Targets standing in forest
// are only visible at a fraction of the vision radius.
func (b *body) perceive() []components.Snapshot {
	vis := b.env.Config.Terrain.ForestVisibility
	nearby := b.env.Registry.QueryNearby(b.handle, b.pos, b.genes.Vision)
	out := nearby[:0]
	for _, s := range nearby {
		if b.env.Terrain.CanSee(b.pos, s.Pos, b.genes.Vision, vis) {
			out = append(out, s)
		}
	}
	return out
}

// die removes the agent and tallies cause. If a capture already removed the
// agent nothing is tallied.
func (b *body) die(cause components.DeathCause) {
	b.dead = true
	if b.env.Registry.Remove(b.handle, cause) {
		slog.Debug("agent died", "kind", b.kind, "cause", cause, "x", b.pos.X, "y", b.pos.Y)
	}
}

// speedFactor returns the terrain multiplier at the body's position.
func (b *body) speedFactor() float64 {
	return b.env.Terrain.SpeedFactor(b.pos, b.env.Config.Terrain.SwampSpeedFactor)
}

// writeBack clamps the position inside margin and stores it with the
// current energy. The registry's stored position is adopted, so a move into
// rock leaves the body where it was and turns it around.
func (b *body) writeBack(margin float64) bool {
	w, h := b.env.Registry.Bounds()
	want := ClampInset(b.pos, w, h, margin)
	stored, ok := b.env.Registry.UpdatePosition(b.handle, want, b.energy)
	if !ok {
		b.dead = true
		return false
	}
	if stored != want {
		b.heading = normalizeAngle(b.heading + math.Pi)
	}
	b.pos = stored
	return true
}

// wander advances a correlated random walk: the heading is perturbed by at
// most ±jitter/2 and reflects off the world edges.
func (b *body) wander(speed, jitter, margin float64) {
	b.heading += (b.rng.Float64() - 0.5) * jitter
	b.pos = MoveToward(b.pos, FromHeading(b.heading), speed)
	w, h := b.env.Registry.Bounds()
	b.heading = normalizeAngle(bounceHeading(b.heading, b.pos, w, h, margin))
}

// disperse pushes the body away from the centroid of crowd by rate times the
// offset, jittered, moving at most maxStep.
func (b *body) disperse(crowd []components.Snapshot, rate, jitter, maxStep float64) {
	away := r2.Sub(b.pos, Centroid(positions(crowd)))
	away.X += (b.rng.Float64() - 0.5) * jitter
	away.Y += (b.rng.Float64() - 0.5) * jitter
	if r2.Norm(away) > 0 {
		b.heading = Heading(away)
	}
	move := r2.Scale(rate, away)
	if n := r2.Norm(move); n > maxStep {
		move = r2.Scale(maxStep/n, move)
	}
	b.pos = r2.Add(b.pos, move)
}

// offspring returns mutated genetics for a child.
func (b *body) offspring(spread float64, lo, hi components.Genetics) components.Genetics {
	return components.Genetics{
		Speed:  mutate(b.rng, b.genes.Speed, spread, lo.Speed, hi.Speed),
		Vision: mutate(b.rng, b.genes.Vision, spread, lo.Vision, hi.Vision),
	}
}

// spawnChild asks the host for a new unit near the body. It reports whether
// the host accepted it.
func (b *body) spawnChild(genes components.Genetics, offset float64) bool {
	pos := r2.Vec{
		X: b.pos.X + (b.rng.Float64()-0.5)*offset,
		Y: b.pos.Y + (b.rng.Float64()-0.5)*offset,
	}
	err := b.env.Host.Spawn(b.kind, components.SpawnArgs{Pos: pos, Genetics: &genes, Parent: b.handle})
	if err != nil {
		slog.Debug("spawn refused", "kind", b.kind, "error", err)
		return false
	}
	b.env.recorder().RecordBirth(b.kind)
	return true
}

// mutate scales v by a uniform factor in [1-spread, 1+spread] and clamps it.
func mutate(rng *rand.Rand, v, spread, lo, hi float64) float64 {
	return clampFloat(v*(1+(rng.Float64()*2-1)*spread), lo, hi)
}

func positions(agents []components.Snapshot) []r2.Vec {
	out := make([]r2.Vec, len(agents))
	for i, a := range agents {
		out[i] = a.Pos
	}
	return out
}

func ofKind(agents []components.Snapshot, kind components.Kind) []components.Snapshot {
	var out []components.Snapshot
	for _, a := range agents {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// nearest returns the agent closest to pos. agents must not be empty.
func nearest(pos r2.Vec, agents []components.Snapshot) (components.Snapshot, float64) {
	best := agents[0]
	bestDist := Distance(pos, best.Pos)
	for _, a := range agents[1:] {
		if d := Distance(pos, a.Pos); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best, bestDist
}
