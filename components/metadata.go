package components

// DeathCause classifies why an agent left the registry.
type DeathCause uint8

const (
	CausePreyHunted DeathCause = iota
	CausePreyStarved
	CausePreyOldAge
	CausePredatorStarved
)

// String returns the display name for a DeathCause.
func (c DeathCause) String() string {
	names := DeathCauseNames()
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// DeathCauseNames returns the display names for all death causes.
// The order matches the DeathCause constants.
func DeathCauseNames() []string {
	return []string{"prey_hunted", "prey_starved", "prey_old_age", "predator_starved"}
}

// DeathStats tallies deaths by cause.
type DeathStats struct {
	PreyHunted      int `csv:"prey_hunted"`
	PreyStarved     int `csv:"prey_starved"`
	PreyOldAge      int `csv:"prey_old_age"`
	PredatorStarved int `csv:"predator_starved"`
}

// Record increments the counter for cause.
func (s *DeathStats) Record(cause DeathCause) {
	switch cause {
	case CausePreyHunted:
		s.PreyHunted++
	case CausePreyStarved:
		s.PreyStarved++
	case CausePreyOldAge:
		s.PreyOldAge++
	case CausePredatorStarved:
		s.PredatorStarved++
	}
}

// Total returns the number of recorded deaths.
func (s DeathStats) Total() int {
	return s.PreyHunted + s.PreyStarved + s.PreyOldAge + s.PredatorStarved
}

// Season is one phase of the cyclic season clock.
type Season uint8

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

// NumSeasons is the length of the season cycle.
const NumSeasons = 4

// Next returns the season that follows s.
func (s Season) Next() Season {
	return (s + 1) % NumSeasons
}

func (s Season) String() string {
	switch s {
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	case Autumn:
		return "autumn"
	case Winter:
		return "winter"
	}
	return "unknown"
}
