// Package telemetry provides windowed ecosystem statistics, bookmarks and
// CSV output.
package telemetry

import "github.com/pthm-cable/savanna/components"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventBirth EventType = iota
	EventForage
	EventConsumeLost
	EventCaptureLost
)

// Event is a single telemetry event reported by a decision core.
type Event struct {
	Type   EventType
	Kind   components.Kind
	Amount int // energy gained, for forage events
}

// NewBirthEvent creates a birth event.
func NewBirthEvent(kind components.Kind) Event {
	return Event{Type: EventBirth, Kind: kind}
}

// NewForageEvent creates a foraging event (prey eating a food item).
func NewForageEvent(energy int) Event {
	return Event{Type: EventForage, Kind: components.KindPrey, Amount: energy}
}

// NewContestLostEvent creates an event for a consume or capture that another
// agent won. Prey lose food contests, predators lose capture contests.
func NewContestLostEvent(kind components.Kind) Event {
	if kind == components.KindPrey {
		return Event{Type: EventConsumeLost, Kind: kind}
	}
	return Event{Type: EventCaptureLost, Kind: kind}
}
