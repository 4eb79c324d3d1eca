// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Grid       GridConfig       `yaml:"grid"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Food       FoodConfig       `yaml:"food"`
	Season     SeasonConfig     `yaml:"season"`
	Cycle      CycleConfig      `yaml:"cycle"`
	Population PopulationConfig `yaml:"population"`
	Prey       PreyConfig       `yaml:"prey"`
	Predator   PredatorConfig   `yaml:"predator"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// GridConfig holds spatial registry parameters.
type GridConfig struct {
	CellSize         float64 `yaml:"cell_size"`         // Trades query cost against per-cell list length
	ContactDistance  float64 `yaml:"contact_distance"`  // Radius used by QueryPreyNear
	RelocateAttempts int     `yaml:"relocate_attempts"` // Retries when registering inside rock
}

// TerrainConfig holds terrain generation and effect parameters.
type TerrainConfig struct {
	Margin            float64      `yaml:"margin"`              // Inset of the center sampling rectangle
	AttemptsPerRegion int          `yaml:"attempts_per_region"` // Candidate budget per requested region
	Vertices          int          `yaml:"vertices"`            // Polygon points per region
	SwampSpeedFactor  float64      `yaml:"swamp_speed_factor"`  // Speed multiplier inside swamp
	ForestVisibility  float64      `yaml:"forest_visibility"`   // Fraction of vision reaching a target in forest
	Forest            RegionConfig `yaml:"forest"`
	Swamp             RegionConfig `yaml:"swamp"`
	Rock              RegionConfig `yaml:"rock"`
}

// RegionConfig holds per-kind terrain generation parameters.
type RegionConfig struct {
	Count       int     `yaml:"count"`
	MinDistance float64 `yaml:"min_distance"` // Minimum distance to prior region centers
	MinRadius   float64 `yaml:"min_radius"`
	MaxRadius   float64 `yaml:"max_radius"`
}

// FoodConfig holds food spawning parameters.
type FoodConfig struct {
	EnergyValue   int     `yaml:"energy_value"`
	SpawnInterval int     `yaml:"spawn_interval"` // Environment ticks between spawns (summer baseline)
	PerSpawn      int     `yaml:"per_spawn"`
	SpawnMargin   float64 `yaml:"spawn_margin"`
	MaxItems      int     `yaml:"max_items"` // 0 = unlimited
	ManualBatch   int     `yaml:"manual_batch"`
}

// SeasonConfig holds season clock parameters.
type SeasonConfig struct {
	Duration int `yaml:"duration"` // Environment ticks per season
}

// CycleConfig holds per-unit cadence parameters.
type CycleConfig struct {
	PreyDelay           time.Duration `yaml:"prey_delay"`
	PredatorDelay       time.Duration `yaml:"predator_delay"`
	EnvironmentInterval time.Duration `yaml:"environment_interval"`
}

// PopulationConfig holds initial population and hard caps.
type PopulationConfig struct {
	InitialPrey      int     `yaml:"initial_prey"`
	InitialPredators int     `yaml:"initial_predators"`
	MaxPrey          int     `yaml:"max_prey"` // 0 = unlimited
	MaxPredators     int     `yaml:"max_predators"`
	PredatorInset    float64 `yaml:"predator_inset"` // Seeded predators stay this far from edges
}

// PreyConfig holds prey energy economics and behavior parameters.
type PreyConfig struct {
	EnergyStart        int     `yaml:"energy_start"`
	EnergyMax          int     `yaml:"energy_max"`
	Speed              float64 `yaml:"speed"`
	Vision             float64 `yaml:"vision"`
	MinSpeed           float64 `yaml:"min_speed"`
	MaxSpeed           float64 `yaml:"max_speed"`
	MinVision          float64 `yaml:"min_vision"`
	MaxVision          float64 `yaml:"max_vision"`
	MaxAge             int     `yaml:"max_age"`
	MetabolismInterval int     `yaml:"metabolism_interval"`
	MetabolismLoss     int     `yaml:"metabolism_loss"`
	FastGeneRatio      float64 `yaml:"fast_gene_ratio"` // Extra loss when speed exceeds base * this
	MaxStamina         int     `yaml:"max_stamina"`
	FleeDrain          int     `yaml:"flee_drain"`
	FleeStaminaFloor   int     `yaml:"flee_stamina_floor"`
	FleeMultiplier     float64 `yaml:"flee_multiplier"`
	TiredMultiplier    float64 `yaml:"tired_multiplier"`
	CruiseFactor       float64 `yaml:"cruise_factor"`
	HungryEnergy       int     `yaml:"hungry_energy"`
	HungryMultiplier   float64 `yaml:"hungry_multiplier"`
	FoodSearchRadius   float64 `yaml:"food_search_radius"`
	EatDistance        float64 `yaml:"eat_distance"`
	CrowdThreshold     int     `yaml:"crowd_threshold"`
	DisperseRate       float64 `yaml:"disperse_rate"`
	DisperseJitter     float64 `yaml:"disperse_jitter"`
	FlockingRadius     float64 `yaml:"flocking_radius"`
	SeparationRadius   float64 `yaml:"separation_radius"`
	SeparationWeight   float64 `yaml:"separation_weight"`
	CohesionWeight     float64 `yaml:"cohesion_weight"`
	CohesionRate       float64 `yaml:"cohesion_rate"`
	WanderWeight       float64 `yaml:"wander_weight"`
	FlockJitter        float64 `yaml:"flock_jitter"`
	WanderJitter       float64 `yaml:"wander_jitter"`
	Margin             float64 `yaml:"margin"`
	ReproThreshold     int     `yaml:"repro_threshold"`
	ReproCost          int     `yaml:"repro_cost"`
	ReproCooldown      int     `yaml:"repro_cooldown"`
	ReproChance        float64 `yaml:"repro_chance"`
	MinHerd            int     `yaml:"min_herd"`
	HerdCap            int     `yaml:"herd_cap"`
	OffspringSpread    float64 `yaml:"offspring_spread"`
}

// PredatorConfig holds predator energy economics and behavior parameters.
type PredatorConfig struct {
	EnergyStart          int     `yaml:"energy_start"`
	EnergyMax            int     `yaml:"energy_max"`
	Speed                float64 `yaml:"speed"`
	Vision               float64 `yaml:"vision"`
	MinSpeed             float64 `yaml:"min_speed"`
	MaxSpeed             float64 `yaml:"max_speed"`
	MinVision            float64 `yaml:"min_vision"`
	MaxVision            float64 `yaml:"max_vision"`
	MetabolismInterval   int     `yaml:"metabolism_interval"`
	MetabolismLoss       int     `yaml:"metabolism_loss"`
	MaxStamina           int     `yaml:"max_stamina"`
	RestRegen            int     `yaml:"rest_regen"`
	ScoutRegen           int     `yaml:"scout_regen"`
	HuntDrain            int     `yaml:"hunt_drain"`
	SwampHuntDrain       int     `yaml:"swamp_hunt_drain"`
	HuntStaminaThreshold int     `yaml:"hunt_stamina_threshold"`
	SprintMultiplier     float64 `yaml:"sprint_multiplier"`
	PatrolFactor         float64 `yaml:"patrol_factor"`
	CaptureDistance      float64 `yaml:"capture_distance"`
	CaptureGain          int     `yaml:"capture_gain"`
	EatingCooldown       int     `yaml:"eating_cooldown"`
	CrowdCap             int     `yaml:"crowd_cap"`
	DisperseRate         float64 `yaml:"disperse_rate"`
	DisperseJitter       float64 `yaml:"disperse_jitter"`
	WanderJitter         float64 `yaml:"wander_jitter"`
	PackCueRadius        float64 `yaml:"pack_cue_radius"`
	PackCueWeight        float64 `yaml:"pack_cue_weight"`
	Margin               float64 `yaml:"margin"`
	ReproThreshold       int     `yaml:"repro_threshold"`
	ReproCost            int     `yaml:"repro_cost"`
	ReproCooldown        int     `yaml:"repro_cooldown"`
	ReproChance          float64 `yaml:"repro_chance"`
	ReproDensityCap      int     `yaml:"repro_density_cap"`
	OffspringSpread      float64 `yaml:"offspring_spread"`
}

// MutationConfig holds genetic drift parameters.
type MutationConfig struct {
	Spread float64 `yaml:"spread"` // Child gene = parent * (1 ± Spread)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowTicks int `yaml:"window_ticks"` // Environment ticks per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellSpan         int           // ceil(max vision / cell size), the widest query window
	CyclesPerSecPrey float64       // Nominal prey cadence
	CyclesPerSecPred float64       // Nominal predator cadence
	SeasonLength     time.Duration // Wall-clock length of one season
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
// Tests use it to build independent configurations.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values that would break the registry or the decision loops.
func (c *Config) validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world: dimensions must be positive, got %vx%v", c.World.Width, c.World.Height)
	}
	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("grid: cell_size must be positive, got %v", c.Grid.CellSize)
	}
	if c.Season.Duration <= 0 {
		return fmt.Errorf("season: duration must be positive, got %d", c.Season.Duration)
	}
	if c.Prey.MetabolismInterval <= 0 || c.Predator.MetabolismInterval <= 0 {
		return fmt.Errorf("metabolism_interval must be positive")
	}
	if c.Cycle.PreyDelay <= 0 || c.Cycle.PredatorDelay <= 0 || c.Cycle.EnvironmentInterval <= 0 {
		return fmt.Errorf("cycle: delays must be positive")
	}
	if c.Food.SpawnInterval <= 0 {
		return fmt.Errorf("food: spawn_interval must be positive, got %d", c.Food.SpawnInterval)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	maxVision := math.Max(c.Prey.MaxVision, c.Predator.MaxVision)
	c.Derived.CellSpan = int(math.Ceil(maxVision / c.Grid.CellSize))

	if c.Cycle.PreyDelay > 0 {
		c.Derived.CyclesPerSecPrey = float64(time.Second) / float64(c.Cycle.PreyDelay)
	}
	if c.Cycle.PredatorDelay > 0 {
		c.Derived.CyclesPerSecPred = float64(time.Second) / float64(c.Cycle.PredatorDelay)
	}
	c.Derived.SeasonLength = time.Duration(c.Season.Duration) * c.Cycle.EnvironmentInterval
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
