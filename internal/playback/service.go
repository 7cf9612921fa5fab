package playback

import (
	"time"

	"github.com/arcadop/spiderbeats/internal/catalog"
)

// Service defines the playback session contract: the single source of truth
// for what is playing and what plays next. All commands are safe to call from
// any goroutine and none of them returns an error — every failure is handled
// at this boundary (logged, surfaced as an ErrorEvent) and playback simply
// doesn't start or advance.
type Service interface {
	// Playback control
	PlayTrack(track catalog.Track)
	TogglePlay()
	SeekTo(position time.Duration)
	SetVolume(volume int) // 0..100
	Next()
	Previous()

	// Queue manipulation
	Enqueue(track catalog.Track)
	ReplaceQueue(tracks []catalog.Track) // does not start playback

	// Mode control
	ToggleShuffle() bool
	CycleRepeatMode() RepeatMode

	// State queries
	CurrentTrack() *catalog.Track
	IsPlaying() bool
	Volume() int
	Position() time.Duration
	Duration() time.Duration
	QueueTracks() []catalog.Track
	Shuffle() bool
	RepeatMode() RepeatMode

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Start()
	Close() error
}
