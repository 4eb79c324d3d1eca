package game

import "gonum.org/v1/gonum/spatial/r2"

// randomPoint returns a uniform point at least inset away from every world
// edge. An inset too large for the world collapses to the center line.
func (s *Simulation) randomPoint(inset float64) r2.Vec {
	cfg := s.config()
	w, h := cfg.World.Width, cfg.World.Height

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return r2.Vec{
		X: span(s.rng.Float64(), inset, w),
		Y: span(s.rng.Float64(), inset, h),
	}
}

func span(u, inset, size float64) float64 {
	if size-2*inset <= 0 {
		return size / 2
	}
	return inset + u*(size-2*inset)
}
