package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Clamp functions for common value ranges

// clampInt clamps an int value between min and max.
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampFloat clamps a float64 value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// Vector helpers

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// MoveToward steps from `from` along dir by step units.
// A zero direction leaves the position unchanged.
func MoveToward(from, dir r2.Vec, step float64) r2.Vec {
	n := r2.Norm(dir)
	if n == 0 {
		return from
	}
	return r2.Add(from, r2.Scale(step/n, dir))
}

// MoveTo steps from `from` toward target by step units.
func MoveTo(from, target r2.Vec, step float64) r2.Vec {
	return MoveToward(from, r2.Sub(target, from), step)
}

// Clamp clamps p into the rectangle [lo, hi].
func Clamp(p, lo, hi r2.Vec) r2.Vec {
	return r2.Vec{
		X: clampFloat(p.X, lo.X, hi.X),
		Y: clampFloat(p.Y, lo.Y, hi.Y),
	}
}

// ClampToBounds clamps p into [0, w] x [0, h].
func ClampToBounds(p r2.Vec, w, h float64) r2.Vec {
	return Clamp(p, r2.Vec{}, r2.Vec{X: w, Y: h})
}

// ClampInset clamps p into the world rectangle shrunk by margin on every side.
func ClampInset(p r2.Vec, w, h, margin float64) r2.Vec {
	return Clamp(p, r2.Vec{X: margin, Y: margin}, r2.Vec{X: w - margin, Y: h - margin})
}

// FromHeading returns the unit vector for angle (radians).
func FromHeading(angle float64) r2.Vec {
	return r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
}

// Heading returns the angle of v in radians.
func Heading(v r2.Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// Centroid returns the mean of points. Empty input yields the origin.
func Centroid(points []r2.Vec) r2.Vec {
	if len(points) == 0 {
		return r2.Vec{}
	}
	var sum r2.Vec
	for _, p := range points {
		sum = r2.Add(sum, p)
	}
	return r2.Scale(1/float64(len(points)), sum)
}

// bounceHeading reflects heading off the inset world edges when p touches them.
func bounceHeading(heading float64, p r2.Vec, w, h, margin float64) float64 {
	if p.X <= margin || p.X >= w-margin {
		heading = math.Pi - heading
	}
	if p.Y <= margin || p.Y >= h-margin {
		heading = -heading
	}
	return heading
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}
