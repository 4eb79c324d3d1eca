package systems

import (
	"math"
	"math/rand"
)

// PerlinNoise generates coherent 2D gradient noise.
// Terrain generation samples it around a ring to get irregular region outlines.
type PerlinNoise struct {
	perm [512]int
}

// NewPerlinNoise creates a noise generator with a permutation drawn from rng.
func NewPerlinNoise(rng *rand.Rand) *PerlinNoise {
	p := &PerlinNoise{}

	// Initialize permutation table
	var perm [256]int
	for i := range perm {
		perm[i] = i
	}

	// Shuffle
	rng.Shuffle(len(perm), func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})

	// Duplicate
	for i := 0; i < 256; i++ {
		p.perm[i] = perm[i]
		p.perm[i+256] = perm[i]
	}

	return p
}

// Noise2D returns a noise value in roughly [-1, 1] for 2D coordinates.
func (p *PerlinNoise) Noise2D(x, y float64) float64 {
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255

	x -= math.Floor(x)
	y -= math.Floor(y)

	u := fade(x)
	v := fade(y)

	aa := p.perm[p.perm[X]+Y]
	ab := p.perm[p.perm[X]+Y+1]
	ba := p.perm[p.perm[X+1]+Y]
	bb := p.perm[p.perm[X+1]+Y+1]

	return lerp(v,
		lerp(u, grad2D(aa, x, y), grad2D(ba, x-1, y)),
		lerp(u, grad2D(ab, x, y-1), grad2D(bb, x-1, y-1)))
}

// Ring samples the noise on a circle of the given radius around (ox, oy),
// mapped into [0, 1]. Equal angles modulo 2*Pi give equal values, so outlines close.
func (p *PerlinNoise) Ring(angle, radius, ox, oy float64) float64 {
	n := p.Noise2D(ox+math.Cos(angle)*radius, oy+math.Sin(angle)*radius)
	return clampFloat((n+1)/2, 0, 1)
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad2D(hash int, x, y float64) float64 {
	switch hash & 7 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	case 3:
		return -x - y
	case 4:
		return x
	case 5:
		return -x
	case 6:
		return y
	default:
		return -y
	}
}
