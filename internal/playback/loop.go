package playback

import (
	"github.com/arcadop/spiderbeats/internal/player"
)

// run is the session event loop: sink events in, session state and
// subscriber notifications out.
func (s *Session) run() {
	events := s.sink.Events()
	for {
		select {
		case <-s.done:
			return

		case settings := <-s.settingsCh:
			s.mu.Lock()
			s.settings = settings
			s.mu.Unlock()

		case e, ok := <-events:
			if !ok {
				return
			}
			// A load replaces the source and bumps the sink generation;
			// anything tagged with an older one belongs to a dead source.
			if e.Generation != s.sink.Generation() {
				continue
			}
			switch e.Type {
			case player.EventPosition:
				s.handlePosition(e)
			case player.EventMetadataReady:
				s.handleMetadata(e)
			case player.EventEnded:
				s.handleEnded()
			}
		}
	}
}

// attachSaved loads the restored track into the sink, paused. The saved
// position is applied once the sink reports metadata; playback never
// auto-resumes across a restart.
func (s *Session) attachSaved() {
	s.mu.RLock()
	cur := s.current
	preferred := s.settings.DownloadQuality
	s.mu.RUnlock()
	if cur == nil {
		return
	}

	url := cur.BestAudioURL(preferred)
	if url == "" {
		return
	}
	if _, err := s.sink.Load(url); err != nil {
		s.log.Warn().Err(err).Str("track_id", cur.ID).Msg("restoring saved track failed")
		s.emitError("restore", cur.ID, err)
	}
}

func (s *Session) handlePosition(e player.Event) {
	s.mu.Lock()
	s.position = e.Position
	if e.Duration > 0 {
		s.duration = e.Duration
	}
	pos, dur := s.position, s.duration
	s.mu.Unlock()

	s.store.SavePosition(pos.Seconds())
	s.emitPosition(pos, dur)
}

// handleMetadata records the source duration and, on a restored track,
// applies the saved position now that the duration is known to clamp
// against.
func (s *Session) handleMetadata(e player.Event) {
	s.mu.Lock()
	s.duration = e.Duration
	restore := s.restorePos
	s.restorePos = 0
	if restore > s.duration {
		restore = s.duration
	}
	if restore > 0 {
		s.position = restore
	}
	pos, dur := s.position, s.duration
	s.mu.Unlock()

	if restore > 0 {
		s.sink.SeekTo(restore)
	}
	s.emitPosition(pos, dur)
}

// handleEnded implements end-of-track policy: repeat-one replays the same
// track, everything else goes through the auto-advance path.
func (s *Session) handleEnded() {
	s.mu.RLock()
	cur := s.current
	repeat := s.repeat
	s.mu.RUnlock()
	if cur == nil {
		return
	}

	if repeat == RepeatOne {
		s.PlayTrack(*cur)
		return
	}
	s.advance(1, true)
}
