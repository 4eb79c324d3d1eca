package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of an environment tick.
type Phase int

const (
	PhaseSeason Phase = iota
	PhaseFood
	PhaseSample
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"season", "food", "sample", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// tickTiming is the record of one environment tick.
type tickTiming struct {
	total   time.Duration
	phases  [numPhases]time.Duration
	sampled int // agents read from the registry, 0 when no snapshot was taken
}

// PerfCollector times environment ticks over a rolling window and relates
// the cost of the registry snapshot to the number of agents it returned.
// It is used from the environment goroutine only.
type PerfCollector struct {
	now  func() time.Time
	ring []tickTiming
	next int
	full bool

	cur        tickTiming
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over the last window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{now: time.Now, ring: make([]tickTiming, window)}
}

// StartTick begins timing a new environment tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.cur = tickTiming{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := p.now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.inPhase = phase, now, true
}

// Sampled records how many agents the current tick's snapshot returned.
func (p *PerfCollector) Sampled(agents int) {
	p.cur.sampled += agents
}

// EndTick closes the running phase and stores the tick in the window.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.next == 0 {
		p.full = true
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

func (p *PerfCollector) recorded() []tickTiming {
	if p.full {
		return p.ring
	}
	return p.ring[:p.next]
}

// PerfStats aggregates the ticks of one window.
type PerfStats struct {
	Ticks   int
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration

	// Average time per tick spent in each phase and its share of the tick
	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64

	// Snapshot cost: agents returned per snapshot and time per agent
	AvgSampled     float64
	SamplePerAgent time.Duration

	// Ticks per second the environment could sustain at the average cost
	Capacity float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	ticks := p.recorded()
	if len(ticks) == 0 {
		return PerfStats{}
	}

	totals := make([]float64, len(ticks))
	var phaseSum [numPhases]time.Duration
	var snapshots, agents int
	var sampleTime time.Duration
	for i, t := range ticks {
		totals[i] = float64(t.total)
		for ph, d := range t.phases {
			phaseSum[ph] += d
		}
		if t.sampled > 0 {
			snapshots++
			agents += t.sampled
			sampleTime += t.phases[PhaseSample]
		}
	}

	out := PerfStats{
		Ticks:   len(ticks),
		AvgTick: time.Duration(stat.Mean(totals, nil)),
		MinTick: time.Duration(floats.Min(totals)),
		MaxTick: time.Duration(floats.Max(totals)),
	}
	for ph := range phaseSum {
		out.PhaseAvg[ph] = phaseSum[ph] / time.Duration(len(ticks))
		if out.AvgTick > 0 {
			out.PhasePct[ph] = float64(out.PhaseAvg[ph]) / float64(out.AvgTick) * 100
		}
	}
	if snapshots > 0 {
		out.AvgSampled = float64(agents) / float64(snapshots)
		out.SamplePerAgent = sampleTime / time.Duration(agents)
	}
	if out.AvgTick > 0 {
		out.Capacity = float64(time.Second) / float64(out.AvgTick)
	}
	return out
}

// LogStats logs the window's timing. Phases under 0.1% are omitted.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"capacity_tps", int(s.Capacity),
		"sampled_agents", int(s.AvgSampled),
		"sample_ns_per_agent", s.SamplePerAgent.Nanoseconds(),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd        int     `csv:"window_end"`
	AvgTickUS        int64   `csv:"avg_tick_us"`
	MinTickUS        int64   `csv:"min_tick_us"`
	MaxTickUS        int64   `csv:"max_tick_us"`
	CapacityTPS      float64 `csv:"capacity_tps"`
	SampledAgents    float64 `csv:"sampled_agents"`
	SampleNSPerAgent int64   `csv:"sample_ns_per_agent"`
	SeasonPct        float64 `csv:"season_pct"`
	FoodPct          float64 `csv:"food_pct"`
	SamplePct        float64 `csv:"sample_pct"`
	TelemetryPct     float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:        windowEnd,
		AvgTickUS:        s.AvgTick.Microseconds(),
		MinTickUS:        s.MinTick.Microseconds(),
		MaxTickUS:        s.MaxTick.Microseconds(),
		CapacityTPS:      s.Capacity,
		SampledAgents:    s.AvgSampled,
		SampleNSPerAgent: s.SamplePerAgent.Nanoseconds(),
		SeasonPct:        s.PhasePct[PhaseSeason],
		FoodPct:          s.PhasePct[PhaseFood],
		SamplePct:        s.PhasePct[PhaseSample],
		TelemetryPct:     s.PhasePct[PhaseTelemetry],
	}
}
