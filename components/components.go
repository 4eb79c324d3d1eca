// Package components defines the plain data records shared by the registry,
// the stores and the decision cores.
package components

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
)

// Kind identifies the species of an agent.
type Kind uint8

const (
	KindPrey Kind = iota
	KindPredator
)

// String returns the display name for a Kind.
func (k Kind) String() string {
	switch k {
	case KindPrey:
		return "prey"
	case KindPredator:
		return "predator"
	}
	return "unknown"
}

// Handle identifies a live agent record in the registry.
// Handles carry a generation, so a stale handle never aliases a newer agent.
type Handle = ecs.Entity

// NoHandle is the zero handle. Queries treat it as "exclude nobody".
var NoHandle Handle

// Agent is the registry's record of a live agent.
type Agent struct {
	Kind   Kind
	Pos    r2.Vec
	Energy int
	Speed  float64 // genetic
	Vision float64 // genetic
	Cell   CellKey // cell the record is filed under
}

// Snapshot is a read-only copy of an agent record returned by queries.
type Snapshot struct {
	Handle Handle
	Kind   Kind
	Pos    r2.Vec
	Energy int
	Speed  float64
	Vision float64
}

// IsPrey reports whether the snapshot is a prey agent.
func (s Snapshot) IsPrey() bool { return s.Kind == KindPrey }

// IsPredator reports whether the snapshot is a predator agent.
func (s Snapshot) IsPredator() bool { return s.Kind == KindPredator }

func (s Snapshot) String() string {
	return fmt.Sprintf("%s at (%.1f, %.1f) E=%d S=%.2f V=%.0f", s.Kind, s.Pos.X, s.Pos.Y, s.Energy, s.Speed, s.Vision)
}
