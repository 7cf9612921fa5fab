package player

// State represents the sink state machine.
//
// Valid transitions:
//   - Stopped → Paused  (via Load: a source is attached but not started)
//   - Paused  → Playing (via Play)
//   - Playing → Paused  (via Pause)
//   - Playing → Stopped (via Stop, or natural end of the source)
//   - Paused  → Stopped (via Stop)
//
// Invalid transitions are no-ops: Play without a source, Pause while
// stopped, Stop while stopped.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if the sink has an attached source (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}
