// Package game hosts the simulation: it starts one goroutine per agent,
// routes signals between them and runs the environment loop that drives
// seasons, food spawning and telemetry.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/systems"
	"github.com/pthm-cable/savanna/telemetry"
)

// bookmarkHistory is the number of windows the bookmark detector compares against.
const bookmarkHistory = 10

// Options configures a Simulation.
type Options struct {
	Seed          int64                       // terrain and environment RNG seed (0 = time-based)
	LogStats      bool                        // log window stats and bookmarks via slog
	OutputDir     string                      // CSV output directory (empty = disabled)
	StatsCallback func(telemetry.WindowStats) // called after every window flush
	Terrain       *systems.Terrain            // fixed terrain instead of a generated one
}

// Simulation is the host runtime for one ecosystem.
type Simulation struct {
	cfg atomic.Pointer[config.Config]

	terrain  *systems.Terrain
	registry *systems.Registry
	food     *systems.FoodStore

	// Telemetry
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	perfCollector    *telemetry.PerfCollector
	outputManager    *telemetry.OutputManager
	logStats         bool
	statsCallback    func(telemetry.WindowStats)

	paused atomic.Bool

	// Unit lifecycle, guarded by mu
	mu        sync.Mutex
	units     *unitGroup
	mailboxes map[components.Handle]chan systems.Signal
	pending   [2]int // spawns accepted but not yet registered, by kind
	parent    context.Context
	envCancel context.CancelFunc
	envDone   chan struct{}
	stopped   bool

	// Environment state, guarded by envMu
	envMu sync.Mutex
	tick  int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds a simulation from cfg. Nothing runs until Start.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	terrain := opts.Terrain
	if terrain == nil {
		terrain = systems.GenerateTerrain(cfg.Terrain, cfg.World.Width, cfg.World.Height, rng)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	s := &Simulation{
		terrain:          terrain,
		registry:         systems.NewRegistry(cfg, terrain),
		food:             systems.NewFoodStore(terrain, cfg.Food.EnergyValue, cfg.Food.MaxItems).WithBounds(cfg.World.Width, cfg.World.Height),
		collector:        telemetry.NewCollector(cfg.Telemetry.WindowTicks),
		bookmarkDetector: telemetry.NewBookmarkDetector(bookmarkHistory),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.WindowTicks),
		outputManager:    om,
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
		mailboxes:        make(map[components.Handle]chan systems.Signal),
		rng:              rng,
	}
	s.cfg.Store(cfg)

	slog.Info("terrain generated",
		"forest", terrain.Count(components.TerrainForest),
		"swamp", terrain.Count(components.TerrainSwamp),
		"rock", terrain.Count(components.TerrainRock),
	)
	return s, nil
}

// config returns the active configuration.
func (s *Simulation) config() *config.Config {
	return s.cfg.Load()
}

// Start begins accepting units and launches the environment loop. Units and
// the loop stop when ctx is cancelled or Stop is called.
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.units != nil {
		return ErrRunning
	}

	s.parent = ctx
	s.units = newUnitGroup(ctx)

	envCtx, cancel := context.WithCancel(ctx)
	s.envCancel = cancel
	s.envDone = make(chan struct{})
	go s.environmentLoop(envCtx, s.envDone)

	slog.Info("simulation started")
	return nil
}

// environmentLoop calls Tick at the configured interval, skipping ticks
// while paused.
func (s *Simulation) environmentLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	interval := s.config().Cycle.EnvironmentInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !s.paused.Load() {
			s.Tick()
		}

		// Pick up interval changes from SetConfig
		if next := s.config().Cycle.EnvironmentInterval; next > 0 && next != interval {
			interval = next
			ticker.Reset(interval)
		}
	}
}

// Tick runs one environment step: advance the season clock, spawn seasonal
// food and flush the telemetry window when it is due.
func (s *Simulation) Tick() {
	s.envMu.Lock()
	defer s.envMu.Unlock()

	cfg := s.config()
	s.perfCollector.StartTick()

	s.perfCollector.StartPhase(telemetry.PhaseSeason)
	s.tick++
	season, changed := s.registry.AdvanceSeason()
	if changed {
		slog.Info("season changed", "season", season.String(), "tick", s.tick)
	}

	s.perfCollector.StartPhase(telemetry.PhaseFood)
	s.spawnSeasonalFood(cfg, season)

	s.flushTelemetry()

	s.perfCollector.EndTick()
}

// spawnSeasonalFood drops a batch of food when the season's interval divides
// the tick count.
func (s *Simulation) spawnSeasonalFood(cfg *config.Config, season components.Season) {
	s.food.SetEnergyValue(cfg.Food.EnergyValue)

	interval, amount := systems.FoodSchedule(season, cfg.Food.SpawnInterval, cfg.Food.PerSpawn)
	if s.tick%interval != 0 {
		return
	}
	for i := 0; i < amount; i++ {
		s.food.Spawn(s.randomPoint(cfg.Food.SpawnMargin))
	}
}

// Ticks returns the number of environment ticks since start or the last restart.
func (s *Simulation) Ticks() int {
	s.envMu.Lock()
	defer s.envMu.Unlock()
	return s.tick
}

// Pause makes every unit and the environment loop skip their cycles.
func (s *Simulation) Pause() {
	s.paused.Store(true)
	slog.Info("simulation paused")
}

// Resume undoes Pause.
func (s *Simulation) Resume() {
	s.paused.Store(false)
	slog.Info("simulation resumed")
}

// Paused reports whether the simulation is paused.
func (s *Simulation) Paused() bool {
	return s.paused.Load()
}

// Restart terminates every unit, waits for them to exit, then empties the
// registry and food store and resets the death tally, season clock and
// telemetry. The simulation keeps running with no agents; call Seed to
// repopulate.
func (s *Simulation) Restart() error {
	s.mu.Lock()
	if s.stopped || s.units == nil {
		s.mu.Unlock()
		return ErrStopped
	}
	old := s.units
	s.units = nil
	s.mu.Unlock()

	old.stop()

	s.envMu.Lock()
	s.registry.Clear(true)
	s.food.Clear()
	s.collector.Reset()
	s.bookmarkDetector = telemetry.NewBookmarkDetector(bookmarkHistory)
	s.tick = 0
	s.envMu.Unlock()

	s.mu.Lock()
	s.mailboxes = make(map[components.Handle]chan systems.Signal)
	s.pending = [2]int{}
	if !s.stopped {
		s.units = newUnitGroup(s.parent)
	}
	s.mu.Unlock()

	slog.Info("simulation restarted")
	return nil
}

// Stop terminates every unit and the environment loop and closes the CSV
// output. It is safe to call more than once.
func (s *Simulation) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	units := s.units
	s.units = nil
	envCancel, envDone := s.envCancel, s.envDone
	s.mu.Unlock()

	if envCancel != nil {
		envCancel()
		<-envDone
	}
	if units != nil {
		units.stop()
	}

	slog.Info("simulation stopped", "tick", s.Ticks())
	return s.outputManager.Close()
}
