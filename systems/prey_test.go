package systems

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/savanna/components"
)

func newTestPrey(env Env, pos r2.Vec, inbox <-chan Signal) *Prey {
	return NewPrey(env, components.SpawnArgs{Pos: pos}, inbox)
}

// ---------- Termination ----------

func TestPrey_Starvation(t *testing.T) {
	env, _ := newTestEnv(testConfig(), nil)
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
	p.energy = 1
	p.cycle = env.Config.Prey.MetabolismInterval - 1

	if p.Step() {
		t.Fatal("prey should starve")
	}
	if env.Registry.Contains(p.Handle()) {
		t.Error("starved prey still registered")
	}
	stats := env.Registry.Stats()
	if stats.PreyStarved != 1 || stats.Total() != 1 {
		t.Errorf("stats = %+v, want one starvation", stats)
	}
}

func TestPrey_FastGeneCostsMore(t *testing.T) {
	env, _ := newTestEnv(testConfig(), nil)
	cfg := env.Config.Prey
	fast := cfg.Speed * (cfg.FastGeneRatio + 0.1)
	p := NewPrey(env, components.SpawnArgs{
		Pos:      r2.Vec{X: 400, Y: 300},
		Genetics: &components.Genetics{Speed: fast, Vision: cfg.Vision},
	}, nil)
	p.energy = 60
	p.cycle = cfg.MetabolismInterval - 1

	p.Step()
	if want := 60 - cfg.MetabolismLoss - 1; p.energy != want {
		t.Errorf("energy = %d, want %d", p.energy, want)
	}
}

func TestPrey_OldAge(t *testing.T) {
	env, _ := newTestEnv(testConfig(), nil)
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
	p.age = env.Config.Prey.MaxAge

	if p.Step() {
		t.Fatal("prey should die of old age")
	}
	if got := env.Registry.Stats().PreyOldAge; got != 1 {
		t.Errorf("old age deaths = %d, want 1", got)
	}
}

func TestPrey_DieSignal(t *testing.T) {
	env, _ := newTestEnv(testConfig(), nil)
	inbox := make(chan Signal, 1)
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, inbox)

	// The capturing predator removes and tallies before signalling
	env.Registry.Remove(p.Handle(), components.CausePreyHunted)
	inbox <- SignalDie

	if p.Step() {
		t.Fatal("signalled prey should stop")
	}
	stats := env.Registry.Stats()
	if stats.PreyHunted != 1 || stats.Total() != 1 {
		t.Errorf("stats = %+v, want only the capture", stats)
	}
}

func TestPrey_RemovedWithoutSignalStops(t *testing.T) {
	env, _ := newTestEnv(testConfig(), nil)
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
	env.Registry.Unregister(p.Handle())

	if p.Step() {
		t.Error("prey removed by a collaborator should stop at write-back")
	}
	if env.Registry.Len() != 0 {
		t.Error("stopped prey re-registered itself")
	}
}

// ---------- Behavior priority ----------

func TestPrey_BehaviorPriority(t *testing.T) {
	origin := r2.Vec{X: 400, Y: 300}

	tests := []struct {
		name  string
		setup func(env Env)
		want  components.PreyMode
	}{
		{
			name:  "alone wanders",
			setup: func(Env) {},
			want:  components.ModeWander,
		},
		{
			name: "neighbour flocks",
			setup: func(env Env) {
				env.Registry.Register(components.KindPrey, r2.Vec{X: 430, Y: 300}, 50, 2.4, 70)
			},
			want: components.ModeFlock,
		},
		{
			name: "food beats flocking",
			setup: func(env Env) {
				env.Registry.Register(components.KindPrey, r2.Vec{X: 430, Y: 300}, 50, 2.4, 70)
				env.Food.Spawn(r2.Vec{X: 400, Y: 380})
			},
			want: components.ModeForage,
		},
		{
			name: "crowd beats food",
			setup: func(env Env) {
				for i := 0; i <= env.Config.Prey.CrowdThreshold; i++ {
					env.Registry.Register(components.KindPrey, r2.Vec{X: 380 + float64(i)*3, Y: 320}, 50, 2.4, 70)
				}
				env.Food.Spawn(r2.Vec{X: 400, Y: 380})
			},
			want: components.ModeDisperse,
		},
		{
			name: "predator beats everything",
			setup: func(env Env) {
				for i := 0; i <= env.Config.Prey.CrowdThreshold; i++ {
					env.Registry.Register(components.KindPrey, r2.Vec{X: 380 + float64(i)*3, Y: 320}, 50, 2.4, 70)
				}
				env.Food.Spawn(r2.Vec{X: 400, Y: 310})
				env.Registry.Register(components.KindPredator, r2.Vec{X: 450, Y: 300}, 100, 2.6, 110)
			},
			want: components.ModeFlee,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _ := newTestEnv(testConfig(), nil)
			p := newTestPrey(env, origin, nil)
			tt.setup(env)

			if !p.Step() {
				t.Fatal("prey died")
			}
			if p.Mode() != tt.want {
				t.Errorf("mode = %v, want %v", p.Mode(), tt.want)
			}
		})
	}
}

func TestPrey_FleesAwayFromPredator(t *testing.T) {
	env, _ := newTestEnv(testConfig(), nil)
	cfg := env.Config.Prey
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
	env.Registry.Register(components.KindPredator, r2.Vec{X: 420, Y: 300}, 100, 2.6, 110)

	p.Step()

	want := 400 - cfg.Speed*cfg.FleeMultiplier
	if diff := p.pos.X - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("x = %v, want %v", p.pos.X, want)
	}
	if p.stamina != cfg.MaxStamina-cfg.FleeDrain {
		t.Errorf("stamina = %d, want %d", p.stamina, cfg.MaxStamina-cfg.FleeDrain)
	}
}

func TestPrey_TiredFleeIsSlower(t *testing.T) {
	terrain := NewTerrain(squareRegion(components.TerrainSwamp, r2.Vec{X: 400, Y: 300}, 50))
	env, _ := newTestEnv(testConfig(), terrain)
	cfg := env.Config.Prey
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
	env.Registry.Register(components.KindPredator, r2.Vec{X: 420, Y: 300}, 100, 2.6, 110)
	p.stamina = cfg.FleeStaminaFloor

	p.Step()

	want := 400 - cfg.Speed*cfg.TiredMultiplier*env.Config.Terrain.SwampSpeedFactor
	if diff := p.pos.X - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("x = %v, want %v", p.pos.X, want)
	}
}

func TestPrey_ForestHidesPredator(t *testing.T) {
	terrain := NewTerrain(squareRegion(components.TerrainForest, r2.Vec{X: 450, Y: 300}, 20))
	env, _ := newTestEnv(testConfig(), terrain)
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
	env.Registry.Register(components.KindPredator, r2.Vec{X: 450, Y: 300}, 100, 2.6, 110)

	p.Step()
	if p.Mode() == components.ModeFlee {
		t.Error("prey fled from a predator concealed in forest")
	}
}

// ---------- Feeding ----------

func TestPrey_EatsFood(t *testing.T) {
	env, _ := newTestEnv(testConfig(), nil)
	cfg := env.Config
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
	p.energy = 50
	env.Food.Spawn(r2.Vec{X: 405, Y: 300})

	p.Step()

	if env.Food.Count() != 0 {
		t.Errorf("food count = %d, want 0", env.Food.Count())
	}
	want := 50 + cfg.Food.EnergyValue
	if p.energy != want {
		t.Errorf("energy = %d, want %d", p.energy, want)
	}
	s, _ := env.Registry.Get(p.Handle())
	if s.Energy != want {
		t.Errorf("registry energy = %d, want %d", s.Energy, want)
	}
}

func TestPrey_EnergyCappedWhenEating(t *testing.T) {
	env, _ := newTestEnv(testConfig(), nil)
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
	p.energy = env.Config.Prey.EnergyMax - 1
	env.Food.Spawn(r2.Vec{X: 405, Y: 300})

	p.Step()
	if p.energy != env.Config.Prey.EnergyMax {
		t.Errorf("energy = %d, want capped at %d", p.energy, env.Config.Prey.EnergyMax)
	}
}

func TestPrey_ApproachesFood(t *testing.T) {
	env, _ := newTestEnv(testConfig(), nil)
	p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
	env.Food.Spawn(r2.Vec{X: 480, Y: 300})

	p.Step()
	if p.pos.X <= 400 {
		t.Errorf("x = %v, want movement toward food", p.pos.X)
	}
	if env.Food.Count() != 1 {
		t.Error("food out of reach should not be eaten")
	}
}

// ---------- Reproduction ----------

func TestPrey_Reproduction(t *testing.T) {
	tests := []struct {
		name      string
		herd      int
		refuse    bool
		wantSpawn int
	}{
		{"no herd", 0, false, 0},
		{"small herd", 1, false, 1},
		{"refused", 1, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Prey.ReproChance = 1
			env, host := newTestEnv(cfg, nil)
			host.refuse = tt.refuse

			p := newTestPrey(env, r2.Vec{X: 400, Y: 300}, nil)
			p.energy = 100
			for i := 0; i < tt.herd; i++ {
				env.Registry.Register(components.KindPrey, r2.Vec{X: 430, Y: 300 + float64(i)*5}, 50, 2.4, 70)
			}

			p.Step()

			if host.spawnCount() != tt.wantSpawn {
				t.Fatalf("spawned %d, want %d", host.spawnCount(), tt.wantSpawn)
			}
			wantEnergy := 100
			if tt.wantSpawn > 0 {
				wantEnergy -= cfg.Prey.ReproCost
				g := host.spawned[0].args.Genetics
				if g.Speed < cfg.Prey.MinSpeed || g.Speed > cfg.Prey.MaxSpeed {
					t.Errorf("offspring speed %v out of range", g.Speed)
				}
			}
			if p.energy != wantEnergy {
				t.Errorf("energy = %d, want %d", p.energy, wantEnergy)
			}
		})
	}
}
