package session

import (
	"time"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
)

// Phase is the position of a monitor in its lifecycle.
// Valid transitions are Idle -> Armed -> (Alerting) -> Stopped.
type Phase int

const (
	// PhaseIdle is a monitor that has been built but not started.
	PhaseIdle Phase = iota
	// PhaseArmed compares every sample against the target.
	PhaseArmed
	// PhaseAlerting means the threshold was crossed and the alarm engaged.
	// It is terminal for the trigger: the monitor never returns to Armed.
	PhaseAlerting
	// PhaseStopped is final.
	PhaseStopped
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseAlerting:
		return "alerting"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ParsePhase is the inverse of String.
func ParsePhase(name string) (Phase, bool) {
	for _, phase := range []Phase{PhaseIdle, PhaseArmed, PhaseAlerting, PhaseStopped} {
		if phase.String() == name {
			return phase, true
		}
	}

	return PhaseIdle, false
}

// Active reports whether samples are processed in this phase.
func (p Phase) Active() bool {
	return p == PhaseArmed || p == PhaseAlerting
}

// CanTransition reports whether moving from p to next is allowed.
func (p Phase) CanTransition(next Phase) bool {
	switch next {
	case PhaseArmed:
		return p == PhaseIdle
	case PhaseAlerting:
		return p == PhaseArmed
	case PhaseStopped:
		return p != PhaseStopped
	default:
		return false
	}
}

// Snapshot is a point-in-time view of a monitoring session.
type Snapshot struct {
	// ID identifies the session, empty for monitors used without a controller.
	ID string
	// Target is the destination.
	Target geo.Target
	// Tone is the configured alarm sound, nil when none is set.
	Tone *tone.Reference
	// Phase is the current lifecycle phase.
	Phase Phase
	// LastDistanceMeters is the distance computed from the latest sample,
	// nil until the first sample arrives.
	LastDistanceMeters *float64
	// SamplesProcessed counts samples handled while active.
	SamplesProcessed uint64
	// StartedAt is when the session was armed.
	StartedAt time.Time
	// UpdatedAt is when the last sample was processed.
	UpdatedAt time.Time
	// TriggeredAt is when the alarm fired, zero if it has not.
	TriggeredAt time.Time
}

// Triggered reports whether the alarm has fired during the session.
func (s *Snapshot) Triggered() bool {
	return !s.TriggeredAt.IsZero()
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.Tone = s.Tone.Clone()

	if s.LastDistanceMeters != nil {
		distance := *s.LastDistanceMeters
		cloned.LastDistanceMeters = &distance
	}

	return &cloned
}
