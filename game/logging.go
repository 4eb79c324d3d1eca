package game

import (
	"log/slog"

	"github.com/pthm-cable/savanna/components"
)

// LogWorldState logs population, food and death counts at Info level.
func (s *Simulation) LogWorldState() {
	var preyEnergy, predEnergy int
	agents := s.registry.All()
	var numPrey, numPred int
	for _, a := range agents {
		if a.Kind == components.KindPrey {
			numPrey++
			preyEnergy += a.Energy
		} else {
			numPred++
			predEnergy += a.Energy
		}
	}

	avg := func(total, n int) float64 {
		if n == 0 {
			return 0
		}
		return float64(total) / float64(n)
	}

	deaths := s.registry.Stats()
	slog.Info("world",
		"tick", s.Ticks(),
		"season", s.registry.Season().String(),
		"prey", numPrey,
		"predators", numPred,
		"food", s.food.Count(),
		"prey_energy_avg", avg(preyEnergy, numPrey),
		"pred_energy_avg", avg(predEnergy, numPred),
		"prey_hunted", deaths.PreyHunted,
		"prey_starved", deaths.PreyStarved,
		"prey_old_age", deaths.PreyOldAge,
		"predator_starved", deaths.PredatorStarved,
	)
}
