package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.World.Width != 800 || cfg.World.Height != 600 {
		t.Errorf("world = %vx%v, want 800x600", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Season.Duration != 300 {
		t.Errorf("season duration = %d, want 300", cfg.Season.Duration)
	}
	if cfg.Cycle.PreyDelay != 30*time.Millisecond || cfg.Cycle.PredatorDelay != 40*time.Millisecond {
		t.Errorf("cycle delays = %v, %v; want 30ms, 40ms", cfg.Cycle.PreyDelay, cfg.Cycle.PredatorDelay)
	}
	if cfg.Predator.CaptureDistance != 25 || cfg.Predator.HuntStaminaThreshold != 30 {
		t.Errorf("predator capture %v, hunt threshold %d", cfg.Predator.CaptureDistance, cfg.Predator.HuntStaminaThreshold)
	}
}

func TestDerived(t *testing.T) {
	cfg := Default()

	// max(prey 200, predator 250) / 100
	if cfg.Derived.CellSpan != 3 {
		t.Errorf("CellSpan = %d, want 3", cfg.Derived.CellSpan)
	}
	if cfg.Derived.SeasonLength != 300*33*time.Millisecond {
		t.Errorf("SeasonLength = %v, want %v", cfg.Derived.SeasonLength, 300*33*time.Millisecond)
	}
	if cfg.Derived.CyclesPerSecPred != 25 {
		t.Errorf("CyclesPerSecPred = %v, want 25", cfg.Derived.CyclesPerSecPred)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := writeFile(t, `
world:
  width: 1000
cycle:
  prey_delay: 10ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.World.Width != 1000 {
		t.Errorf("width = %v, want 1000 from file", cfg.World.Width)
	}
	if cfg.World.Height != 600 {
		t.Errorf("height = %v, want 600 from defaults", cfg.World.Height)
	}
	if cfg.Cycle.PreyDelay != 10*time.Millisecond || cfg.Cycle.PredatorDelay != 40*time.Millisecond {
		t.Errorf("cycle delays = %v, %v", cfg.Cycle.PreyDelay, cfg.Cycle.PredatorDelay)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero cell size", "grid:\n  cell_size: 0\n", "cell_size"},
		{"negative width", "world:\n  width: -5\n", "world"},
		{"zero season", "season:\n  duration: 0\n", "season"},
		{"zero delay", "cycle:\n  environment_interval: 0s\n", "cycle"},
		{"bad yaml", "world: [unclosed\n", "parsing config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Food.EnergyValue = 42
	cfg.Cycle.EnvironmentInterval = 50 * time.Millisecond

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Food.EnergyValue != 42 || got.Cycle.EnvironmentInterval != 50*time.Millisecond {
		t.Errorf("round trip lost values: energy %d, interval %v", got.Food.EnergyValue, got.Cycle.EnvironmentInterval)
	}
	if got.Prey != cfg.Prey {
		t.Error("prey section changed in round trip")
	}
}

func TestClone(t *testing.T) {
	cfg := Default()
	cp := cfg.Clone()
	cp.Prey.Speed = 9

	if cfg.Prey.Speed == 9 {
		t.Error("Clone should not share state with the original")
	}
}

func TestInitAndCfg(t *testing.T) {
	MustInit("")
	if Cfg().World.Width != 800 {
		t.Errorf("Cfg().World.Width = %v, want 800", Cfg().World.Width)
	}

	if err := Init(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Init with a missing file should fail")
	}
}
