package playback

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arcadop/spiderbeats/internal/catalog"
	"github.com/arcadop/spiderbeats/internal/history"
	"github.com/arcadop/spiderbeats/internal/player"
	"github.com/arcadop/spiderbeats/internal/playlist"
	"github.com/arcadop/spiderbeats/internal/state"
)

// Verify Session implements Service at compile time.
var _ Service = (*Session)(nil)

// Session is the playback session manager. It owns the queue, the transport
// state and the one audio sink; everything else observes it through
// subscriptions.
type Session struct {
	mu sync.RWMutex

	sink     player.Interface
	queue    *playlist.Queue
	store    state.Interface
	recorder history.Recorder // nil disables history
	log      zerolog.Logger

	current    *catalog.Track
	isPlaying  bool
	volume     int // 0..100
	position   time.Duration
	duration   time.Duration
	shuffle    bool
	repeat     RepeatMode
	restorePos time.Duration // saved progress, applied on first MetadataReady

	settings   state.Settings
	settingsCh <-chan state.Settings

	subs   []*Subscription
	subsMu sync.RWMutex

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a playback session rehydrated from the store's snapshot. The
// sink is not touched until Start; playback never auto-resumes across a
// restart.
func New(sink player.Interface, store state.Interface, recorder history.Recorder, log zerolog.Logger) *Session {
	snap := store.LoadSnapshot()

	queue := playlist.New()
	queue.Replace(snap.Queue)

	s := &Session{
		sink:       sink,
		queue:      queue,
		store:      store,
		recorder:   recorder,
		log:        log,
		current:    snap.CurrentTrack,
		volume:     snap.Volume,
		shuffle:    snap.Shuffle,
		repeat:     repeatModeFromStorage(snap.RepeatMode),
		restorePos: time.Duration(snap.Progress * float64(time.Second)),
		settings:   store.LoadSettings(),
		settingsCh: store.SettingsChanged(),
		done:       make(chan struct{}),
	}
	sink.SetVolume(float64(s.volume) / 100)
	return s
}

// Start launches the event loop and attaches the restored track, paused.
func (s *Session) Start() {
	go s.run()
	go s.attachSaved()
}

// Close shuts down the session. The sink and the store have their own
// owners; this only stops the loop and releases subscribers.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		s.subsMu.Lock()
		for _, sub := range s.subs {
			sub.close()
		}
		s.subs = nil
		s.subsMu.Unlock()
	})
	return nil
}

// Subscribe creates a new event subscription.
func (s *Session) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// CurrentTrack returns a copy of the current track, or nil if none.
func (s *Session) CurrentTrack() *catalog.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	t := *s.current
	return &t
}

// IsPlaying reports whether playback is running. It is only ever true while
// the sink has an active source.
func (s *Session) IsPlaying() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isPlaying
}

// Volume returns the volume (0..100).
func (s *Session) Volume() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// Position returns the current playback position.
func (s *Session) Position() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// Duration returns the current track duration, 0 until the sink reports it.
func (s *Session) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration
}

// QueueTracks returns a copy of the queue.
func (s *Session) QueueTracks() []catalog.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.Tracks()
}

// Shuffle reports whether shuffle is enabled.
func (s *Session) Shuffle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuffle
}

// RepeatMode returns the current repeat mode.
func (s *Session) RepeatMode() RepeatMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repeat
}

// snapshotLocked builds the durable snapshot. Caller holds at least a read
// lock.
func (s *Session) snapshotLocked() state.Snapshot {
	return state.Snapshot{
		CurrentTrack: s.current,
		Queue:        s.queue.Tracks(),
		Volume:       s.volume,
		Progress:     s.position.Seconds(),
		Shuffle:      s.shuffle,
		RepeatMode:   s.repeat.storageString(),
	}
}

// saveSnapshot mirrors the durable fields to the store. Called on every
// state-changing command; position ticks go through the store's throttled
// path instead.
func (s *Session) saveSnapshot() {
	s.mu.RLock()
	snap := s.snapshotLocked()
	s.mu.RUnlock()
	s.store.SaveSnapshot(snap)
}

func (s *Session) forEachSub(fn func(*Subscription)) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		fn(sub)
	}
}

func (s *Session) emitState(playing bool) {
	s.forEachSub(func(sub *Subscription) { sub.sendState(StateChange{Playing: playing}) })
}

func (s *Session) emitTrack(prev, cur *catalog.Track) {
	s.forEachSub(func(sub *Subscription) { sub.sendTrack(TrackChange{Previous: prev, Current: cur}) })
}

func (s *Session) emitPosition(pos, dur time.Duration) {
	s.forEachSub(func(sub *Subscription) { sub.sendPosition(PositionChange{Position: pos, Duration: dur}) })
}

func (s *Session) emitQueue(tracks []catalog.Track) {
	s.forEachSub(func(sub *Subscription) { sub.sendQueue(QueueChange{Tracks: tracks}) })
}

func (s *Session) emitMode(shuffle bool, repeat RepeatMode) {
	s.forEachSub(func(sub *Subscription) { sub.sendMode(ModeChange{Shuffle: shuffle, RepeatMode: repeat}) })
}

func (s *Session) emitVolume(v int) {
	s.forEachSub(func(sub *Subscription) { sub.sendVolume(VolumeChange{Volume: v}) })
}

func (s *Session) emitError(op, trackID string, err error) {
	s.forEachSub(func(sub *Subscription) { sub.sendError(ErrorEvent{Operation: op, TrackID: trackID, Err: err}) })
}
