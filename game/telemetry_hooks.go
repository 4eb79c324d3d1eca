package game

import (
	"log/slog"

	"github.com/pthm-cable/savanna/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
// Called from Tick with envMu held.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	s.perfCollector.StartPhase(telemetry.PhaseSample)
	sample := telemetry.Sample{
		Tick:   s.tick,
		Season: s.registry.Season(),
		Food:   s.food.Count(),
		Agents: s.registry.All(),
		Deaths: s.registry.Stats(),
	}
	s.perfCollector.Sampled(len(sample.Agents))

	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	stats := s.collector.Flush(sample)
	perfStats := s.perfCollector.Stats()

	// Call stats callback if provided
	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarkDetector.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}
