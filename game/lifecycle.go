package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/systems"
)

var (
	// ErrSpawnRefused is returned when a unit cannot be created.
	ErrSpawnRefused = errors.New("game: spawn refused")
	// ErrStopped is returned when the simulation is not accepting units.
	ErrStopped = fmt.Errorf("%w: simulation not running", ErrSpawnRefused)
	// ErrRunning is returned by Start on a running simulation.
	ErrRunning = errors.New("game: already running")
)

// Spawn starts a decision-core unit of the given kind. The unit registers
// itself and begins its loop on a new goroutine; Spawn never blocks on it.
// It returns ErrSpawnRefused when the kind's population cap is reached and
// ErrStopped when no run is active.
func (s *Simulation) Spawn(kind components.Kind, args components.SpawnArgs) error {
	cfg := s.config()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.units == nil {
		return ErrStopped
	}
	if limit := populationCap(cfg, kind); limit > 0 && s.population(kind)+s.pending[kind] >= limit {
		return ErrSpawnRefused
	}

	s.pending[kind]++
	env := s.env(cfg)
	s.units.start(func(ctx context.Context) {
		s.runUnit(ctx, env, kind, args)
	})
	return nil
}

// runUnit builds the core, publishes its mailbox and drives it until it
// dies or the run is cancelled.
func (s *Simulation) runUnit(ctx context.Context, env systems.Env, kind components.Kind, args components.SpawnArgs) {
	var (
		core  systems.Core
		delay time.Duration
		inbox chan systems.Signal
	)
	switch kind {
	case components.KindPrey:
		inbox = make(chan systems.Signal, 1)
		core = systems.NewPrey(env, args, inbox)
		delay = env.Config.Cycle.PreyDelay
	default:
		core = systems.NewPredator(env, args)
		delay = env.Config.Cycle.PredatorDelay
	}
	h := core.Handle()

	s.mu.Lock()
	s.pending[kind]--
	if inbox != nil {
		s.mailboxes[h] = inbox
	}
	s.mu.Unlock()

	slog.Debug("agent born", "kind", kind.String(), "handle", h.ID(), "parent", args.Parent.ID())

	systems.Run(ctx, core, delay, s.paused.Load)

	s.mu.Lock()
	delete(s.mailboxes, h)
	s.mu.Unlock()

	slog.Debug("agent exited", "kind", kind.String(), "handle", h.ID())
}

// Send delivers sig to the unit owning handle. Signals to unknown units or
// to a full mailbox are dropped.
func (s *Simulation) Send(to components.Handle, sig systems.Signal) {
	s.mu.Lock()
	inbox, ok := s.mailboxes[to]
	s.mu.Unlock()
	if !ok {
		return
	}

	select {
	case inbox <- sig:
	default:
	}
}

// Seed spawns the initial population at random positions. Predators are
// kept PredatorInset away from the world edges.
func (s *Simulation) Seed(prey, predators int) error {
	for i := 0; i < prey; i++ {
		if err := s.SpawnAgent(components.KindPrey); err != nil {
			return fmt.Errorf("seeding prey %d/%d: %w", i+1, prey, err)
		}
	}
	for i := 0; i < predators; i++ {
		if err := s.SpawnAgent(components.KindPredator); err != nil {
			return fmt.Errorf("seeding predator %d/%d: %w", i+1, predators, err)
		}
	}
	slog.Info("population seeded", "prey", prey, "predators", predators)
	return nil
}

// SpawnAgent spawns one agent of kind with default genetics at a random
// position.
func (s *Simulation) SpawnAgent(kind components.Kind) error {
	var inset float64
	if kind == components.KindPredator {
		inset = s.config().Population.PredatorInset
	}
	return s.Spawn(kind, components.SpawnArgs{Pos: s.randomPoint(inset)})
}

// UnregisterAgent removes an agent without tallying a death and tells its
// unit to stop. Predators have no mailbox; they notice at their next capture
// attempt or position write and exit without scoring. It reports whether the
// agent was live.
func (s *Simulation) UnregisterAgent(h components.Handle) bool {
	ok := s.registry.Unregister(h)
	if ok {
		s.Send(h, systems.SignalDie)
	}
	return ok
}

func (s *Simulation) env(cfg *config.Config) systems.Env {
	return systems.Env{
		Config:   cfg,
		Registry: s.registry,
		Terrain:  s.terrain,
		Food:     s.food,
		Host:     s,
		Recorder: s.collector,
	}
}

func (s *Simulation) population(kind components.Kind) int {
	if kind == components.KindPrey {
		return s.registry.PreyCount()
	}
	return s.registry.PredatorCount()
}

func populationCap(cfg *config.Config, kind components.Kind) int {
	if kind == components.KindPrey {
		return cfg.Population.MaxPrey
	}
	return cfg.Population.MaxPredators
}
