package playback

import (
	"time"

	"github.com/arcadop/spiderbeats/internal/catalog"
)

// StateChange is emitted when isPlaying flips.
type StateChange struct {
	Playing bool
}

// TrackChange is emitted when the current track changes.
//
// Emitted by PlayTrack (and everything routed through it: Next, Previous,
// auto-advance, repeat-one replay). Pause and seek do not emit it. The
// front-end should handle track side effects (title, artwork) in response to
// this event, not by polling.
type TrackChange struct {
	Previous *catalog.Track
	Current  *catalog.Track
}

// PositionChange is emitted on position ticks and seeks.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// QueueChange is emitted when the queue contents change.
type QueueChange struct {
	Tracks []catalog.Track
}

// ModeChange is emitted when shuffle or repeat mode changes.
type ModeChange struct {
	Shuffle    bool
	RepeatMode RepeatMode
}

// VolumeChange is emitted when the volume changes.
type VolumeChange struct {
	Volume int
}

// ErrorEvent is emitted for failures the session swallowed. Nothing in the
// session propagates an error across the command boundary; this channel is
// how a front-end can still surface them.
type ErrorEvent struct {
	Operation string // e.g. "play", "resolve"
	TrackID   string
	Err       error
}
