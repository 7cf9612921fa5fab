package player

import "time"

// Interface defines the audio sink contract for dependency injection and
// testing. Exactly one sink instance exists for the lifetime of a session;
// switching tracks reassigns its source rather than creating a new sink, so
// the volume setting and the event channel persist across track changes.
type Interface interface {
	// Load fetches and decodes the URL and attaches it as the sink's source,
	// paused. It returns the load generation; every event the sink emits
	// carries the generation of the load it belongs to, so consumers can
	// discard events from a superseded source.
	Load(url string) (uint64, error)
	Play()
	Pause()
	Stop()
	SeekTo(pos time.Duration)
	SetVolume(level float64) // linear 0.0..1.0
	Volume() float64

	State() State
	Position() time.Duration
	Duration() time.Duration
	Generation() uint64

	// Events returns the sink's event stream: position ticks while playing,
	// one MetadataReady per load, one Ended per natural play-through.
	Events() <-chan Event

	Close()
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
