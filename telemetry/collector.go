package telemetry

import (
	"sync"

	"github.com/pthm-cable/savanna/components"
)

// Collector accumulates events within windows of environment ticks and
// produces WindowStats. Decision cores record concurrently, so every method
// takes the lock.
type Collector struct {
	mu sync.Mutex

	windowTicks     int
	windowStartTick int

	// Event counters for current window
	preyBirths   int
	predBirths   int
	forageEvents int
	forageEnergy int
	consumeLost  int
	captureLost  int

	// Registry tally at the start of the window; deaths are reported as deltas
	baseline components.DeathStats
}

// NewCollector creates a collector that flushes every windowTicks
// environment ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// Record counts one event.
func (c *Collector) Record(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case EventBirth:
		if ev.Kind == components.KindPrey {
			c.preyBirths++
		} else {
			c.predBirths++
		}
	case EventForage:
		c.forageEvents++
		c.forageEnergy += ev.Amount
	case EventConsumeLost:
		c.consumeLost++
	case EventCaptureLost:
		c.captureLost++
	}
}

// RecordBirth records a birth event.
func (c *Collector) RecordBirth(kind components.Kind) {
	c.Record(NewBirthEvent(kind))
}

// RecordForage records a prey eating a food item worth energy.
func (c *Collector) RecordForage(energy int) {
	c.Record(NewForageEvent(energy))
}

// RecordContestLost records a consume or capture lost to another agent.
func (c *Collector) RecordContestLost(kind components.Kind) {
	c.Record(NewContestLostEvent(kind))
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Sample is the world state the caller observes at the end of a window.
type Sample struct {
	Tick   int
	Season components.Season
	Food   int
	Agents []components.Snapshot
	Deaths components.DeathStats // cumulative registry tally
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(s Sample) WindowStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A reset tally restarts the deltas from zero
	deaths := s.Deaths
	if deaths.Total() >= c.baseline.Total() {
		deaths = subtractDeaths(deaths, c.baseline)
	}

	var preyEnergy, predEnergy, preySpeed, predSpeed, preyVision, predVision []float64
	for _, a := range s.Agents {
		if a.IsPrey() {
			preyEnergy = append(preyEnergy, float64(a.Energy))
			preySpeed = append(preySpeed, a.Speed)
			preyVision = append(preyVision, a.Vision)
		} else {
			predEnergy = append(predEnergy, float64(a.Energy))
			predSpeed = append(predSpeed, a.Speed)
			predVision = append(predVision, a.Vision)
		}
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   s.Tick,
		Season:          s.Season.String(),

		PreyCount: len(preyEnergy),
		PredCount: len(predEnergy),
		FoodCount: s.Food,

		PreyBirths:  c.preyBirths,
		PredBirths:  c.predBirths,
		PreyHunted:  deaths.PreyHunted,
		PreyStarved: deaths.PreyStarved,
		PreyOldAge:  deaths.PreyOldAge,
		PredStarved: deaths.PredatorStarved,

		ForageEvents: c.forageEvents,
		ForageEnergy: c.forageEnergy,
		ConsumeLost:  c.consumeLost,
		CaptureLost:  c.captureLost,
	}
	stats.PreyEnergyMean, stats.PreyEnergyP10, stats.PreyEnergyP50, stats.PreyEnergyP90 = ComputeEnergyStats(preyEnergy)
	stats.PredEnergyMean, stats.PredEnergyP10, stats.PredEnergyP50, stats.PredEnergyP90 = ComputeEnergyStats(predEnergy)
	stats.PreySpeedMean, stats.PreySpeedStd = ComputeTraitStats(preySpeed)
	stats.PredSpeedMean, stats.PredSpeedStd = ComputeTraitStats(predSpeed)
	stats.PreyVisionMean, stats.PreyVisionStd = ComputeTraitStats(preyVision)
	stats.PredVisionMean, stats.PredVisionStd = ComputeTraitStats(predVision)

	// Reset for next window
	c.windowStartTick = s.Tick
	c.baseline = s.Deaths
	c.clearCounters()

	return stats
}

// Reset discards the current window and restarts counting at tick 0.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.windowStartTick = 0
	c.baseline = components.DeathStats{}
	c.clearCounters()
}

// ResetBaseline must be called when the registry tally is zeroed mid-window.
func (c *Collector) ResetBaseline() {
	c.mu.Lock()
	c.baseline = components.DeathStats{}
	c.mu.Unlock()
}

func (c *Collector) clearCounters() {
	c.preyBirths = 0
	c.predBirths = 0
	c.forageEvents = 0
	c.forageEnergy = 0
	c.consumeLost = 0
	c.captureLost = 0
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}

func subtractDeaths(a, b components.DeathStats) components.DeathStats {
	return components.DeathStats{
		PreyHunted:      a.PreyHunted - b.PreyHunted,
		PreyStarved:     a.PreyStarved - b.PreyStarved,
		PreyOldAge:      a.PreyOldAge - b.PreyOldAge,
		PredatorStarved: a.PredatorStarved - b.PredatorStarved,
	}
}
