package systems

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/config"
)

// Region is an immutable polygonal terrain patch.
// The outline is closed implicitly: the last point connects back to the first.
type Region struct {
	Kind   components.TerrainKind
	Center r2.Vec
	Points []r2.Vec

	lo, hi r2.Vec // bounding box
}

// NewRegion builds a region from an outline, computing its bounding box.
func NewRegion(kind components.TerrainKind, center r2.Vec, points []r2.Vec) Region {
	r := Region{Kind: kind, Center: center, Points: points}
	if len(points) == 0 {
		return r
	}
	r.lo, r.hi = points[0], points[0]
	for _, p := range points[1:] {
		r.lo.X = math.Min(r.lo.X, p.X)
		r.lo.Y = math.Min(r.lo.Y, p.Y)
		r.hi.X = math.Max(r.hi.X, p.X)
		r.hi.Y = math.Max(r.hi.Y, p.Y)
	}
	return r
}

// Contains reports whether p lies inside the outline (even-odd rule).
func (r *Region) Contains(p r2.Vec) bool {
	if len(r.Points) < 3 {
		return false
	}
	if p.X < r.lo.X || p.X > r.hi.X || p.Y < r.lo.Y || p.Y > r.hi.Y {
		return false
	}

	inside := false
	j := len(r.Points) - 1
	for i := range r.Points {
		a, b := r.Points[i], r.Points[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Terrain is the read-only terrain index. It is generated once and never
// mutated, so queries need no locking. A nil *Terrain is an empty plain.
type Terrain struct {
	forest []Region
	swamp  []Region
	rock   []Region
}

// NewTerrain indexes the given regions by kind.
func NewTerrain(regions ...Region) *Terrain {
	t := &Terrain{}
	for _, r := range regions {
		switch r.Kind {
		case components.TerrainForest:
			t.forest = append(t.forest, r)
		case components.TerrainSwamp:
			t.swamp = append(t.swamp, r)
		case components.TerrainRock:
			t.rock = append(t.rock, r)
		}
	}
	return t
}

// GenerateTerrain places forest, swamp and rock regions inside a w x h world.
//
// For each kind, candidate centers are sampled in the margin-inset rectangle
// and rejected when closer than the kind's minimum distance to any center
// already placed. The candidate budget is bounded, so fewer regions than
// requested may be realized.
func GenerateTerrain(cfg config.TerrainConfig, w, h float64, rng *rand.Rand) *Terrain {
	noise := NewPerlinNoise(rng)
	t := &Terrain{}

	var centers []r2.Vec
	place := func(kind components.TerrainKind, rc config.RegionConfig) []Region {
		var out []Region
		budget := rc.Count * max(cfg.AttemptsPerRegion, 1)
		for attempt := 0; attempt < budget && len(out) < rc.Count; attempt++ {
			c := r2.Vec{
				X: cfg.Margin + rng.Float64()*math.Max(w-2*cfg.Margin, 0),
				Y: cfg.Margin + rng.Float64()*math.Max(h-2*cfg.Margin, 0),
			}
			if tooClose(c, centers, rc.MinDistance) {
				continue
			}
			centers = append(centers, c)
			out = append(out, buildRegion(kind, c, rc, cfg.Vertices, noise, rng))
		}
		return out
	}

	t.forest = place(components.TerrainForest, cfg.Forest)
	t.swamp = place(components.TerrainSwamp, cfg.Swamp)
	t.rock = place(components.TerrainRock, cfg.Rock)
	return t
}

func tooClose(c r2.Vec, centers []r2.Vec, minDist float64) bool {
	for _, o := range centers {
		if Distance(c, o) < minDist {
			return true
		}
	}
	return false
}

// buildRegion samples an irregular outline around center.
// Forest uses clustered (sorted random) angles, the other kinds evenly spaced
// angles with a small jitter.
func buildRegion(kind components.TerrainKind, center r2.Vec, rc config.RegionConfig, vertices int, noise *PerlinNoise, rng *rand.Rand) Region {
	if vertices < 3 {
		vertices = 3
	}
	base := rc.MinRadius + rng.Float64()*math.Max(rc.MaxRadius-rc.MinRadius, 0)
	step := 2 * math.Pi / float64(vertices)

	angles := make([]float64, vertices)
	if kind == components.TerrainForest {
		for i := range angles {
			angles[i] = rng.Float64() * 2 * math.Pi
		}
		sort.Float64s(angles)
	} else {
		for i := range angles {
			angles[i] = float64(i)*step + (rng.Float64()-0.5)*step*0.5
		}
	}

	// Offset the noise ring per region so outlines differ
	ox, oy := rng.Float64()*200, rng.Float64()*200
	points := make([]r2.Vec, vertices)
	for i, a := range angles {
		radius := base * (0.65 + 0.7*noise.Ring(a, 1.5, ox, oy))
		points[i] = r2.Add(center, r2.Scale(radius, FromHeading(a)))
	}
	return NewRegion(kind, center, points)
}

// InForest reports whether p lies inside any forest region.
func (t *Terrain) InForest(p r2.Vec) bool {
	if t == nil {
		return false
	}
	return anyContains(t.forest, p)
}

// InSwamp reports whether p lies inside any swamp region.
func (t *Terrain) InSwamp(p r2.Vec) bool {
	if t == nil {
		return false
	}
	return anyContains(t.swamp, p)
}

// IsObstacle reports whether p lies inside any rock region.
func (t *Terrain) IsObstacle(p r2.Vec) bool {
	if t == nil {
		return false
	}
	return anyContains(t.rock, p)
}

func anyContains(regions []Region, p r2.Vec) bool {
	for i := range regions {
		if regions[i].Contains(p) {
			return true
		}
	}
	return false
}

// Count returns the number of regions of the given kind.
func (t *Terrain) Count(kind components.TerrainKind) int {
	if t == nil {
		return 0
	}
	switch kind {
	case components.TerrainForest:
		return len(t.forest)
	case components.TerrainSwamp:
		return len(t.swamp)
	case components.TerrainRock:
		return len(t.rock)
	}
	return 0
}

// Regions returns every region for drawing. Outlines are shared and must not be modified.
func (t *Terrain) Regions() []Region {
	if t == nil {
		return nil
	}
	out := make([]Region, 0, len(t.forest)+len(t.swamp)+len(t.rock))
	out = append(out, t.forest...)
	out = append(out, t.swamp...)
	out = append(out, t.rock...)
	return out
}

// SpeedFactor returns the movement multiplier at p.
func (t *Terrain) SpeedFactor(p r2.Vec, swampFactor float64) float64 {
	if t.InSwamp(p) {
		return swampFactor
	}
	return 1
}

// CanSee reports whether an observer at from with the given vision radius
// perceives a target at to. A target standing in forest is only visible
// within forestVisibility * vision.
func (t *Terrain) CanSee(from, to r2.Vec, vision, forestVisibility float64) bool {
	d := Distance(from, to)
	if d > vision {
		return false
	}
	if t.InForest(to) {
		return d <= vision*forestVisibility
	}
	return true
}
