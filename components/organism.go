package components

import "gonum.org/v1/gonum/spatial/r2"

// Genetics holds the heritable traits of an agent.
type Genetics struct {
	Speed  float64
	Vision float64
}

// SpawnArgs are the initialization arguments for a new decision-core unit.
// A nil Genetics means the kind's configured defaults.
type SpawnArgs struct {
	Pos      r2.Vec
	Genetics *Genetics
	Parent   Handle // zero for seeded agents
}

// PredatorState is the predator state machine position.
type PredatorState uint8

const (
	StateScouting PredatorState = iota
	StateHunting
	StateResting
)

func (s PredatorState) String() string {
	switch s {
	case StateScouting:
		return "scouting"
	case StateHunting:
		return "hunting"
	case StateResting:
		return "resting"
	}
	return "unknown"
}

// PreyMode is the behavior a prey selected in its last cycle.
type PreyMode uint8

const (
	ModeWander PreyMode = iota
	ModeFlee
	ModeDisperse
	ModeForage
	ModeFlock
)

func (m PreyMode) String() string {
	switch m {
	case ModeWander:
		return "wander"
	case ModeFlee:
		return "flee"
	case ModeDisperse:
		return "disperse"
	case ModeForage:
		return "forage"
	case ModeFlock:
		return "flock"
	}
	return "unknown"
}
