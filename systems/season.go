package systems

import "github.com/pthm-cable/savanna/components"

// SeasonClock cycles spring → summer → autumn → winter, advancing one season
// every duration ticks. It is not safe for concurrent use on its own; the
// registry guards it.
type SeasonClock struct {
	season   components.Season
	tick     int
	total    int
	duration int
}

// NewSeasonClock creates a clock starting in spring.
func NewSeasonClock(duration int) SeasonClock {
	if duration < 1 {
		duration = 1
	}
	return SeasonClock{duration: duration}
}

// Advance moves the clock one tick and reports whether the season changed.
func (c *SeasonClock) Advance() bool {
	c.tick++
	c.total++
	if c.tick < c.duration {
		return false
	}
	c.tick = 0
	c.season = c.season.Next()
	return true
}

// Season returns the current season.
func (c *SeasonClock) Season() components.Season { return c.season }

// Tick returns the number of ticks since the clock was created or reset.
func (c *SeasonClock) Tick() int { return c.total }

// Reset returns the clock to the first tick of spring.
func (c *SeasonClock) Reset() {
	c.season = components.Spring
	c.tick = 0
	c.total = 0
}

// FoodSchedule returns the spawn interval (in environment ticks) and batch
// size for the season, given the summer baseline.
func FoodSchedule(season components.Season, interval, perSpawn int) (int, int) {
	switch season {
	case components.Spring:
		return max(1, interval/2), perSpawn + 1
	case components.Autumn:
		return interval * 2, perSpawn
	case components.Winter:
		return interval * 5, perSpawn
	}
	return interval, perSpawn
}
