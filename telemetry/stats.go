package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of environment ticks.
type WindowStats struct {
	WindowStartTick int    `csv:"-"`
	WindowEndTick   int    `csv:"window_end"`
	Season          string `csv:"season"`

	// Population counts at window end
	PreyCount int `csv:"prey"`
	PredCount int `csv:"pred"`
	FoodCount int `csv:"food"`

	// Events during window
	PreyBirths  int `csv:"prey_births"`
	PredBirths  int `csv:"pred_births"`
	PreyHunted  int `csv:"prey_hunted"`
	PreyStarved int `csv:"prey_starved"`
	PreyOldAge  int `csv:"prey_old_age"`
	PredStarved int `csv:"pred_starved"`

	// Feeding
	ForageEvents int `csv:"forage_events"`
	ForageEnergy int `csv:"forage_energy"`
	ConsumeLost  int `csv:"consume_lost"` // food claimed by another prey first
	CaptureLost  int `csv:"capture_lost"` // prey removed before the capture landed

	// Energy distribution (sampled at window end)
	PreyEnergyMean float64 `csv:"prey_energy_mean"`
	PreyEnergyP10  float64 `csv:"prey_energy_p10"`
	PreyEnergyP50  float64 `csv:"prey_energy_p50"`
	PreyEnergyP90  float64 `csv:"prey_energy_p90"`

	PredEnergyMean float64 `csv:"pred_energy_mean"`
	PredEnergyP10  float64 `csv:"pred_energy_p10"`
	PredEnergyP50  float64 `csv:"pred_energy_p50"`
	PredEnergyP90  float64 `csv:"pred_energy_p90"`

	// Genetics
	PreySpeedMean  float64 `csv:"prey_speed_mean"`
	PreySpeedStd   float64 `csv:"prey_speed_std"`
	PreyVisionMean float64 `csv:"prey_vision_mean"`
	PreyVisionStd  float64 `csv:"prey_vision_std"`
	PredSpeedMean  float64 `csv:"pred_speed_mean"`
	PredSpeedStd   float64 `csv:"pred_speed_std"`
	PredVisionMean float64 `csv:"pred_vision_mean"`
	PredVisionStd  float64 `csv:"pred_vision_std"`
}

// Deaths returns the number of deaths of any cause in the window.
func (s WindowStats) Deaths() int {
	return s.PreyHunted + s.PreyStarved + s.PreyOldAge + s.PredStarved
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeTraitStats returns the mean and population standard deviation of a
// genetic trait.
func ComputeTraitStats(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.String("season", s.Season),
		slog.Int("prey", s.PreyCount),
		slog.Int("pred", s.PredCount),
		slog.Int("food", s.FoodCount),
		slog.Int("prey_births", s.PreyBirths),
		slog.Int("pred_births", s.PredBirths),
		slog.Int("prey_hunted", s.PreyHunted),
		slog.Int("prey_starved", s.PreyStarved),
		slog.Int("prey_old_age", s.PreyOldAge),
		slog.Int("pred_starved", s.PredStarved),
		slog.Int("forage_events", s.ForageEvents),
		slog.Int("forage_energy", s.ForageEnergy),
		slog.Int("consume_lost", s.ConsumeLost),
		slog.Int("capture_lost", s.CaptureLost),
		slog.Float64("prey_energy_mean", s.PreyEnergyMean),
		slog.Float64("prey_energy_p50", s.PreyEnergyP50),
		slog.Float64("pred_energy_mean", s.PredEnergyMean),
		slog.Float64("pred_energy_p50", s.PredEnergyP50),
		slog.Float64("prey_speed_mean", s.PreySpeedMean),
		slog.Float64("prey_vision_mean", s.PreyVisionMean),
		slog.Float64("pred_speed_mean", s.PredSpeedMean),
		slog.Float64("pred_vision_mean", s.PredVisionMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"season", s.Season,
		"prey", s.PreyCount,
		"pred", s.PredCount,
		"food", s.FoodCount,
		"prey_births", s.PreyBirths,
		"pred_births", s.PredBirths,
		"prey_hunted", s.PreyHunted,
		"prey_starved", s.PreyStarved,
		"prey_old_age", s.PreyOldAge,
		"pred_starved", s.PredStarved,
		"forage_events", s.ForageEvents,
		"consume_lost", s.ConsumeLost,
		"capture_lost", s.CaptureLost,
		"prey_energy_mean", s.PreyEnergyMean,
		"pred_energy_mean", s.PredEnergyMean,
		"prey_speed_mean", s.PreySpeedMean,
		"pred_speed_mean", s.PredSpeedMean,
	)
}
