package player

import "time"

// EventType discriminates sink events.
type EventType int

const (
	// EventPosition is emitted at a steady rate while playing.
	EventPosition EventType = iota
	// EventMetadataReady is emitted once per load, after the duration is known.
	EventMetadataReady
	// EventEnded is emitted exactly once per completed play-through, never
	// for a pause or a stop.
	EventEnded
)

// Event is an asynchronous signal from the sink. Generation identifies the
// load that produced it; events whose generation doesn't match the current
// load are stale and must be ignored.
type Event struct {
	Type       EventType
	Generation uint64
	Position   time.Duration
	Duration   time.Duration
}

// String returns the event type name for debugging.
func (t EventType) String() string {
	switch t {
	case EventPosition:
		return "Position"
	case EventMetadataReady:
		return "MetadataReady"
	case EventEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}
