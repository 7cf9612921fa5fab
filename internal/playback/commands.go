package playback

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/arcadop/spiderbeats/internal/catalog"
	"github.com/arcadop/spiderbeats/internal/history"
	"github.com/arcadop/spiderbeats/internal/player"
)

// ErrUnplayable means a track resolved to no playable URL.
var ErrUnplayable = errors.New("no playable url")

const historyTimeout = 15 * time.Second

// PlayTrack makes the track current and starts playback. An unplayable track
// or a sink start failure leaves a stopped player and intact state; neither
// is reported to the caller.
func (s *Session) PlayTrack(track catalog.Track) {
	s.mu.Lock()
	prev := s.current
	t := track
	s.current = &t
	s.position = 0
	s.duration = 0
	s.restorePos = 0
	preferred := s.settings.DownloadQuality
	s.mu.Unlock()

	s.emitTrack(prev, &t)

	url := track.BestAudioURL(preferred)
	if url == "" {
		s.log.Debug().Str("track_id", track.ID).Msg("track has no playable url")
		s.emitError("resolve", track.ID, ErrUnplayable)
		s.saveSnapshot()
		return
	}

	// Optimistic: the command reports playing immediately and rolls back if
	// the sink rejects the load.
	s.setPlaying(true)

	if _, err := s.sink.Load(url); err != nil {
		if errors.Is(err, player.ErrSuperseded) {
			// A newer play command took the sink while this fetch was in
			// flight; session state now belongs to it. Not a failure.
			return
		}
		s.setPlaying(false)
		s.log.Warn().Err(err).Str("track_id", track.ID).Msg("playback start failed")
		s.emitError("play", track.ID, err)
		s.saveSnapshot()
		return
	}
	s.sink.Play()

	s.saveSnapshot()
	s.recordPlay(track, url)
}

// TogglePlay flips play/pause. No-op without a current track.
func (s *Session) TogglePlay() {
	s.mu.RLock()
	cur := s.current
	playing := s.isPlaying
	s.mu.RUnlock()
	if cur == nil {
		return
	}

	if playing {
		s.sink.Pause()
		s.setPlaying(false)
		s.saveSnapshot()
		return
	}

	if !s.sink.State().IsActive() {
		// The source was never attached (restore or last load failed), so
		// resuming means a fresh play.
		s.PlayTrack(*cur)
		return
	}
	s.sink.Play()
	s.setPlaying(true)
	s.saveSnapshot()
}

// SeekTo jumps to the given position, clamped to [0, duration]. The session's
// position updates immediately; it does not wait for the sink's next tick.
func (s *Session) SeekTo(pos time.Duration) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	if pos < 0 {
		pos = 0
	}
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}
	s.position = pos
	dur := s.duration
	s.mu.Unlock()

	s.sink.SeekTo(pos)
	s.store.SavePosition(pos.Seconds())
	s.emitPosition(pos, dur)
}

// SetVolume sets the volume, clamped to [0,100], applied to the sink as a
// linear gain.
func (s *Session) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()

	s.sink.SetVolume(float64(volume) / 100)
	s.saveSnapshot()
	s.emitVolume(volume)
}

// Next advances to the next track. A manual skip always moves: at the end of
// a non-repeating queue it wraps to the start.
func (s *Session) Next() {
	s.advance(1, false)
}

// Previous steps backward through the queue. Under shuffle it picks a new
// random different track; there is no back-stack.
func (s *Session) Previous() {
	s.advance(-1, false)
}

// Enqueue appends a track without affecting the current one.
func (s *Session) Enqueue(track catalog.Track) {
	s.mu.Lock()
	s.queue.Append(track)
	tracks := s.queue.Tracks()
	s.mu.Unlock()

	s.saveSnapshot()
	s.emitQueue(tracks)
}

// ReplaceQueue swaps the queue wholesale. It does not start playback.
func (s *Session) ReplaceQueue(tracks []catalog.Track) {
	s.mu.Lock()
	s.queue.Replace(tracks)
	copied := s.queue.Tracks()
	s.mu.Unlock()

	s.saveSnapshot()
	s.emitQueue(copied)
}

// ToggleShuffle flips shuffle and returns the new value.
func (s *Session) ToggleShuffle() bool {
	s.mu.Lock()
	s.shuffle = !s.shuffle
	shuffle := s.shuffle
	repeat := s.repeat
	s.mu.Unlock()

	s.saveSnapshot()
	s.emitMode(shuffle, repeat)
	return shuffle
}

// CycleRepeatMode advances off → all → one → off and returns the new mode.
func (s *Session) CycleRepeatMode() RepeatMode {
	s.mu.Lock()
	s.repeat = s.repeat.Next()
	shuffle := s.shuffle
	repeat := s.repeat
	s.mu.Unlock()

	s.saveSnapshot()
	s.emitMode(shuffle, repeat)
	return repeat
}

// advance implements the shared next/previous/auto-advance algorithm.
func (s *Session) advance(step int, isAuto bool) {
	s.mu.RLock()
	if s.current == nil || s.queue.IsEmpty() {
		s.mu.RUnlock()
		return
	}
	idx := s.queue.IndexOf(s.current.ID)
	if idx < 0 {
		s.mu.RUnlock()
		return
	}
	length := s.queue.Len()
	shuffle := s.shuffle
	repeat := s.repeat

	var next *catalog.Track
	switch {
	case shuffle && length > 1:
		// Uniformly random different index; shuffle takes precedence over
		// repeat mode entirely.
		r := idx
		for r == idx {
			r = rand.IntN(length)
		}
		next = s.queue.At(r)

	case step > 0:
		if idx == length-1 && repeat == RepeatOff && isAuto {
			s.mu.RUnlock()
			// Natural completion at the end of a non-repeating queue stops.
			s.sink.Pause()
			s.setPlaying(false)
			s.saveSnapshot()
			return
		}
		next = s.queue.At((idx + 1) % length)

	default:
		prev := idx - 1
		if prev < 0 {
			prev = length - 1
		}
		next = s.queue.At(prev)
	}
	s.mu.RUnlock()

	if next != nil {
		s.PlayTrack(*next)
	}
}

// setPlaying updates isPlaying and notifies subscribers on change.
func (s *Session) setPlaying(playing bool) {
	s.mu.Lock()
	if s.isPlaying == playing {
		s.mu.Unlock()
		return
	}
	s.isPlaying = playing
	s.mu.Unlock()
	s.emitState(playing)
}

// recordPlay fires the history side effect: asynchronous, best-effort, never
// blocks or rolls back playback.
func (s *Session) recordPlay(track catalog.Track, url string) {
	if s.recorder == nil {
		return
	}
	entry := history.EntryFromTrack(track, url)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := s.recorder.Record(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("track_id", entry.TrackID).Msg("history record failed")
		}
	}()
}
