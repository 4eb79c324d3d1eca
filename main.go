package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/game"
	"github.com/pthm-cable/savanna/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	numPrey := flag.Int("prey", -1, "Initial prey (-1 = use config)")
	numPred := flag.Int("predators", -1, "Initial predators (-1 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N environment ticks (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output window stats and bookmarks via slog")
	debug := flag.Bool("debug", false, "Log agent births and exits")
	seed := flag.Int64("seed", 0, "Terrain RNG seed (0 = time-based)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	prey := cfg.Population.InitialPrey
	if *numPrey >= 0 {
		prey = *numPrey
	}
	predators := cfg.Population.InitialPredators
	if *numPred >= 0 {
		predators = *numPred
	}

	// A seeded species dying out ends the run
	extinct := make(chan telemetry.WindowStats, 1)
	opts := game.Options{
		Seed:      *seed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		StatsCallback: func(s telemetry.WindowStats) {
			if (prey > 0 && s.PreyCount == 0) || (predators > 0 && s.PredCount == 0) {
				select {
				case extinct <- s:
				default:
				}
			}
		},
	}

	sim, err := game.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sim.Start(ctx); err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	if err := sim.Seed(prey, predators); err != nil {
		slog.Warn("seeding stopped early", "error", err)
	}

	slog.Info("starting headless simulation",
		"seed", *seed,
		"prey", prey,
		"predators", predators,
		"max_ticks", *maxTicks,
		"output_dir", *outputDir,
	)

	poll := time.NewTicker(cfg.Cycle.EnvironmentInterval)
	defer poll.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "tick", sim.Ticks())
			break loop
		case s := <-extinct:
			slog.Info("extinction", "tick", s.WindowEndTick, "prey", s.PreyCount, "predators", s.PredCount)
			break loop
		case <-poll.C:
			if *maxTicks > 0 && sim.Ticks() >= *maxTicks {
				slog.Info("max ticks reached", "tick", sim.Ticks())
				break loop
			}
		}
	}

	sim.LogWorldState()
	if err := sim.Stop(); err != nil {
		slog.Error("failed to close output", "error", err)
		os.Exit(1)
	}
}
