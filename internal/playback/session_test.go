package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arcadop/spiderbeats/internal/catalog"
	"github.com/arcadop/spiderbeats/internal/player"
	"github.com/arcadop/spiderbeats/internal/state"
)

func testTrack(id, name string) catalog.Track {
	return catalog.Track{
		ID:             id,
		Name:           name,
		PrimaryArtists: "Test Artist",
		Duration:       180,
		DownloadURL: []catalog.DownloadLink{
			{Quality: "320kbps", URL: "https://cdn.example.com/" + id + "_320.mp3"},
			{Quality: "160kbps", URL: "https://cdn.example.com/" + id + "_160.mp3"},
		},
	}
}

func newTestSession(t *testing.T) (*Session, *player.Mock, *state.Mock) {
	t.Helper()
	sink := player.NewMock()
	store := state.NewMock()
	s := New(sink, store, nil, zerolog.Nop())
	t.Cleanup(func() { s.Close() })
	return s, sink, store
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestPlayTrackStartsPlayback(t *testing.T) {
	s, sink, store := newTestSession(t)

	track := testTrack("t1", "First")
	s.PlayTrack(track)

	if !s.IsPlaying() {
		t.Error("expected playing after PlayTrack")
	}
	cur := s.CurrentTrack()
	if cur == nil || cur.ID != "t1" {
		t.Errorf("current track = %v, want t1", cur)
	}
	loads := sink.LoadCalls()
	if len(loads) != 1 || loads[0] != "https://cdn.example.com/t1_320.mp3" {
		t.Errorf("load calls = %v", loads)
	}
	if sink.PlayCalls() != 1 {
		t.Errorf("play calls = %d, want 1", sink.PlayCalls())
	}
	snap := store.LoadSnapshot()
	if snap.CurrentTrack == nil || snap.CurrentTrack.ID != "t1" {
		t.Errorf("persisted current = %v, want t1", snap.CurrentTrack)
	}
}

func TestPlayTrackUnplayable(t *testing.T) {
	s, sink, _ := newTestSession(t)
	sub := s.Subscribe()

	track := testTrack("t1", "No Links")
	track.DownloadURL = nil
	s.PlayTrack(track)

	if s.IsPlaying() {
		t.Error("unplayable track must not report playing")
	}
	// The track still becomes current so the UI can show it.
	if cur := s.CurrentTrack(); cur == nil || cur.ID != "t1" {
		t.Errorf("current = %v, want t1", cur)
	}
	if len(sink.LoadCalls()) != 0 {
		t.Errorf("sink loaded %v, want nothing", sink.LoadCalls())
	}

	select {
	case e := <-sub.Error:
		if !errors.Is(e.Err, ErrUnplayable) {
			t.Errorf("error event = %v, want ErrUnplayable", e.Err)
		}
	default:
		t.Error("expected an error event for unplayable track")
	}
}

func TestPlayTrackLoadFailureRollsBack(t *testing.T) {
	s, sink, _ := newTestSession(t)
	sub := s.Subscribe()

	sink.SetLoadError(errors.New("fetch failed"))
	s.PlayTrack(testTrack("t1", "Broken"))

	if s.IsPlaying() {
		t.Error("load failure must roll isPlaying back")
	}
	if sink.PlayCalls() != 0 {
		t.Errorf("play calls = %d, want 0", sink.PlayCalls())
	}
	select {
	case e := <-sub.Error:
		if e.Operation != "play" || e.TrackID != "t1" {
			t.Errorf("error event = %+v", e)
		}
	default:
		t.Error("expected an error event for failed load")
	}
}

func TestTogglePlay(t *testing.T) {
	s, sink, _ := newTestSession(t)

	// No current track: no-op.
	s.TogglePlay()
	if s.IsPlaying() || sink.PlayCalls() != 0 {
		t.Error("toggle without a track must do nothing")
	}

	s.PlayTrack(testTrack("t1", "First"))
	s.TogglePlay()
	if s.IsPlaying() {
		t.Error("expected paused after toggle")
	}
	if sink.PauseCalls() != 1 {
		t.Errorf("pause calls = %d, want 1", sink.PauseCalls())
	}
	s.TogglePlay()
	if !s.IsPlaying() {
		t.Error("expected playing after second toggle")
	}
	// Resume must reuse the attached source, not reload.
	if len(sink.LoadCalls()) != 1 {
		t.Errorf("load calls = %d, want 1", len(sink.LoadCalls()))
	}
}

func TestSeekToClamps(t *testing.T) {
	s, sink, store := newTestSession(t)
	s.PlayTrack(testTrack("t1", "First"))
	s.handleMetadata(player.Event{Type: player.EventMetadataReady, Duration: 3 * time.Minute})

	tests := []struct {
		name string
		seek time.Duration
		want time.Duration
	}{
		{"negative clamps to zero", -5 * time.Second, 0},
		{"past end clamps to duration", 10 * time.Minute, 3 * time.Minute},
		{"in range passes through", 90 * time.Second, 90 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.SeekTo(tt.seek)
			if got := s.Position(); got != tt.want {
				t.Errorf("position = %v, want %v", got, tt.want)
			}
		})
	}

	if len(sink.SeekCalls()) != len(tests) {
		t.Errorf("sink seek calls = %d, want %d", len(sink.SeekCalls()), len(tests))
	}
	if got := store.LoadSnapshot().Progress; got != 90 {
		t.Errorf("persisted progress = %v, want 90", got)
	}
}

func TestSeekBeforeMetadataKeepsPosition(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.PlayTrack(testTrack("t1", "First"))

	// Duration unknown: only the lower bound applies.
	s.SeekTo(45 * time.Second)
	if got := s.Position(); got != 45*time.Second {
		t.Errorf("position = %v, want 45s", got)
	}
}

func TestManualNextWrapsAtEnd(t *testing.T) {
	s, _, _ := newTestSession(t)
	a, b, c := testTrack("a", "A"), testTrack("b", "B"), testTrack("c", "C")
	s.ReplaceQueue([]catalog.Track{a, b, c})

	s.PlayTrack(c)
	s.Next()
	if cur := s.CurrentTrack(); cur == nil || cur.ID != "a" {
		t.Errorf("manual next from last = %v, want a", cur)
	}
}

func TestPreviousWraps(t *testing.T) {
	s, _, _ := newTestSession(t)
	a, b, c := testTrack("a", "A"), testTrack("b", "B"), testTrack("c", "C")
	s.ReplaceQueue([]catalog.Track{a, b, c})

	s.PlayTrack(a)
	s.Previous()
	if cur := s.CurrentTrack(); cur == nil || cur.ID != "c" {
		t.Errorf("previous from first = %v, want c", cur)
	}
	s.Previous()
	if cur := s.CurrentTrack(); cur == nil || cur.ID != "b" {
		t.Errorf("previous = %v, want b", cur)
	}
}

func TestAutoAdvanceStopsAtQueueEnd(t *testing.T) {
	s, sink, _ := newTestSession(t)
	a, b, c := testTrack("a", "A"), testTrack("b", "B"), testTrack("c", "C")
	s.ReplaceQueue([]catalog.Track{a, b, c})
	s.PlayTrack(c)

	s.handleEnded()

	if s.IsPlaying() {
		t.Error("natural completion at queue end must stop")
	}
	// The last track stays current; position is wherever it ended.
	if cur := s.CurrentTrack(); cur == nil || cur.ID != "c" {
		t.Errorf("current = %v, want c", cur)
	}
	if sink.PauseCalls() == 0 {
		t.Error("expected sink pause at queue end")
	}
}

func TestAutoAdvanceRepeatAllWraps(t *testing.T) {
	s, _, _ := newTestSession(t)
	a, b := testTrack("a", "A"), testTrack("b", "B")
	s.ReplaceQueue([]catalog.Track{a, b})
	s.PlayTrack(b)
	s.CycleRepeatMode() // all

	s.handleEnded()

	if cur := s.CurrentTrack(); cur == nil || cur.ID != "a" {
		t.Errorf("current = %v, want a", cur)
	}
	if !s.IsPlaying() {
		t.Error("repeat-all wrap must keep playing")
	}
}

func TestRepeatOneReplaysSameTrack(t *testing.T) {
	s, sink, _ := newTestSession(t)
	a, b := testTrack("a", "A"), testTrack("b", "B")
	s.ReplaceQueue([]catalog.Track{a, b})
	s.PlayTrack(a)
	s.CycleRepeatMode() // all
	s.CycleRepeatMode() // one

	s.handleEnded()

	if cur := s.CurrentTrack(); cur == nil || cur.ID != "a" {
		t.Errorf("current = %v, want a", cur)
	}
	if !s.IsPlaying() {
		t.Error("repeat-one must keep playing")
	}
	// Initial play plus the replay.
	if len(sink.LoadCalls()) != 2 {
		t.Errorf("load calls = %d, want 2", len(sink.LoadCalls()))
	}
}

func TestTogglePlayAfterQueueEndRestarts(t *testing.T) {
	s, sink, _ := newTestSession(t)
	s.Start()
	a, b := testTrack("a", "A"), testTrack("b", "B")
	s.ReplaceQueue([]catalog.Track{a, b})
	s.PlayTrack(b)

	// Natural completion at queue end: the sink drains and detaches its
	// source, the session stops.
	sink.EmitEnded()
	waitFor(t, func() bool { return !s.IsPlaying() }, "session never stopped at queue end")
	if sink.State().IsActive() {
		t.Fatal("sink must have no source after a natural end")
	}

	// Resuming cannot toggle a dead source; it must re-issue a fresh play.
	s.TogglePlay()
	waitFor(t, func() bool { return s.IsPlaying() }, "resume after queue end never started")
	loads := sink.LoadCalls()
	if len(loads) != 2 || loads[1] != "https://cdn.example.com/b_320.mp3" {
		t.Errorf("load calls = %v, want a fresh load of b", loads)
	}
}

func TestPlayTrackSupersededLoad(t *testing.T) {
	s, sink, _ := newTestSession(t)
	sub := s.Subscribe()

	// The sink reports that a newer load won the race for its source.
	sink.SetLoadError(player.ErrSuperseded)
	s.PlayTrack(testTrack("t1", "Slow Fetch"))

	// The losing command must not roll back or report failure: the winning
	// command owns the session state now.
	if !s.IsPlaying() {
		t.Error("superseded load must not flip isPlaying back")
	}
	if sink.PlayCalls() != 0 {
		t.Errorf("play calls = %d, want 0", sink.PlayCalls())
	}
	select {
	case e := <-sub.Error:
		t.Errorf("unexpected error event %+v for superseded load", e)
	default:
	}
}

func TestShuffleNeverPicksCurrentIndex(t *testing.T) {
	s, _, _ := newTestSession(t)
	tracks := []catalog.Track{
		testTrack("a", "A"), testTrack("b", "B"), testTrack("c", "C"),
		testTrack("d", "D"), testTrack("e", "E"),
	}
	s.ReplaceQueue(tracks)
	s.PlayTrack(tracks[2])
	s.ToggleShuffle()

	for i := 0; i < 1000; i++ {
		before := s.CurrentTrack().ID
		s.Next()
		after := s.CurrentTrack().ID
		if after == before {
			t.Fatalf("iteration %d: shuffle picked the current track %q again", i, before)
		}
	}
}

func TestShuffleSingleTrackQueue(t *testing.T) {
	s, _, _ := newTestSession(t)
	only := testTrack("solo", "Solo")
	s.ReplaceQueue([]catalog.Track{only})
	s.PlayTrack(only)
	s.ToggleShuffle()

	s.Next()
	if cur := s.CurrentTrack(); cur == nil || cur.ID != "solo" {
		t.Errorf("current = %v, want solo", cur)
	}
}

func TestCurrentNotInQueue(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.ReplaceQueue([]catalog.Track{testTrack("a", "A"), testTrack("b", "B")})
	s.PlayTrack(testTrack("x", "Standalone"))

	s.Next()
	// Advance requires the current track to be locatable in the queue.
	if cur := s.CurrentTrack(); cur == nil || cur.ID != "x" {
		t.Errorf("current = %v, want x unchanged", cur)
	}
}

func TestModeAndVolumePersistence(t *testing.T) {
	s, sink, store := newTestSession(t)

	s.SetVolume(42)
	if got := sink.Volume(); got != 0.42 {
		t.Errorf("sink gain = %v, want 0.42", got)
	}
	if got := s.ToggleShuffle(); !got {
		t.Error("first toggle should enable shuffle")
	}
	if got := s.CycleRepeatMode(); got != RepeatAll {
		t.Errorf("cycle = %v, want RepeatAll", got)
	}

	snap := store.LoadSnapshot()
	if snap.Volume != 42 || !snap.Shuffle || snap.RepeatMode != "all" {
		t.Errorf("snapshot = %+v, want volume 42, shuffle, repeat all", snap)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	s, sink, _ := newTestSession(t)

	s.SetVolume(150)
	if s.Volume() != 100 || sink.Volume() != 1.0 {
		t.Errorf("volume = %d gain = %v, want 100 / 1.0", s.Volume(), sink.Volume())
	}
	s.SetVolume(-10)
	if s.Volume() != 0 || sink.Volume() != 0 {
		t.Errorf("volume = %d gain = %v, want 0 / 0", s.Volume(), sink.Volume())
	}
}

func TestQueueCommands(t *testing.T) {
	s, _, store := newTestSession(t)

	s.Enqueue(testTrack("a", "A"))
	s.Enqueue(testTrack("b", "B"))
	if got := len(s.QueueTracks()); got != 2 {
		t.Errorf("queue len = %d, want 2", got)
	}

	s.PlayTrack(testTrack("a", "A"))
	s.ReplaceQueue([]catalog.Track{testTrack("c", "C")})
	// Replacing the queue never interrupts the current track.
	if cur := s.CurrentTrack(); cur == nil || cur.ID != "a" {
		t.Errorf("current = %v, want a", cur)
	}
	snap := store.LoadSnapshot()
	if len(snap.Queue) != 1 || snap.Queue[0].ID != "c" {
		t.Errorf("persisted queue = %v, want [c]", snap.Queue)
	}
}

func TestRestoreFromSnapshot(t *testing.T) {
	sink := player.NewMock()
	store := state.NewMock()
	track := testTrack("t1", "Restored")
	store.SetSnapshot(state.Snapshot{
		CurrentTrack: &track,
		Queue:        []catalog.Track{track, testTrack("t2", "Other")},
		Volume:       55,
		Progress:     37.5,
		Shuffle:      true,
		RepeatMode:   "all",
	})

	s := New(sink, store, nil, zerolog.Nop())
	defer s.Close()

	if cur := s.CurrentTrack(); cur == nil || cur.ID != "t1" {
		t.Errorf("current = %v, want t1", cur)
	}
	if s.Volume() != 55 || !s.Shuffle() || s.RepeatMode() != RepeatAll {
		t.Errorf("restored volume=%d shuffle=%v repeat=%v", s.Volume(), s.Shuffle(), s.RepeatMode())
	}
	if got := sink.Volume(); got != 0.55 {
		t.Errorf("sink gain = %v, want 0.55", got)
	}
	if s.IsPlaying() {
		t.Error("playback must never auto-resume after restore")
	}

	s.Start()
	waitFor(t, func() bool { return len(sink.LoadCalls()) == 1 }, "restored track never loaded")
	if s.IsPlaying() {
		t.Error("restore attach must leave the sink paused")
	}

	// Duration arrives; the saved position applies, clamped.
	sink.EmitMetadata(3 * time.Minute)
	want := time.Duration(37.5 * float64(time.Second))
	waitFor(t, func() bool { return s.Position() == want }, "saved position never applied")
	seeks := sink.SeekCalls()
	if len(seeks) != 1 || seeks[0] != want {
		t.Errorf("sink seeks = %v, want [%v]", seeks, want)
	}
}

func TestRestorePositionClampedToDuration(t *testing.T) {
	sink := player.NewMock()
	store := state.NewMock()
	track := testTrack("t1", "Short")
	store.SetSnapshot(state.Snapshot{
		CurrentTrack: &track,
		Queue:        []catalog.Track{track},
		Volume:       70,
		Progress:     500, // beyond the real duration
		RepeatMode:   "off",
	})

	s := New(sink, store, nil, zerolog.Nop())
	defer s.Close()
	s.Start()
	waitFor(t, func() bool { return len(sink.LoadCalls()) == 1 }, "restored track never loaded")

	sink.EmitMetadata(2 * time.Minute)
	waitFor(t, func() bool { return s.Position() == 2*time.Minute }, "position not clamped to duration")
}

func TestStaleSinkEventsIgnored(t *testing.T) {
	s, sink, _ := newTestSession(t)
	s.Start()

	s.PlayTrack(testTrack("t1", "First"))

	// Events from a superseded source must not move the session.
	sink.EmitStale(player.EventPosition)
	sink.EmitStale(player.EventEnded)
	sink.EmitPosition(30 * time.Second)

	waitFor(t, func() bool { return s.Position() == 30*time.Second }, "fresh position never applied")
	if cur := s.CurrentTrack(); cur == nil || cur.ID != "t1" {
		t.Errorf("stale ended event advanced the track: current = %v", cur)
	}
	if !s.IsPlaying() {
		t.Error("stale events must not stop playback")
	}
}

func TestSettingsChangeAffectsQuality(t *testing.T) {
	s, sink, store := newTestSession(t)
	s.Start()

	settings := store.LoadSettings()
	settings.DownloadQuality = "160kbps"
	store.SaveSettings(settings)

	waitFor(t, func() bool {
		s.PlayTrack(testTrack("q", "Quality"))
		loads := sink.LoadCalls()
		return loads[len(loads)-1] == "https://cdn.example.com/q_160.mp3"
	}, "quality change never picked up")
}

func TestPositionEventsPersistProgress(t *testing.T) {
	s, sink, store := newTestSession(t)
	s.Start()
	s.PlayTrack(testTrack("t1", "First"))

	sink.EmitPosition(12 * time.Second)
	waitFor(t, func() bool { return store.PositionSaves() >= 1 }, "position never persisted")
	if got := store.LoadSnapshot().Progress; got != 12 {
		t.Errorf("persisted progress = %v, want 12", got)
	}
}

func TestSubscribersReceiveEvents(t *testing.T) {
	s, _, _ := newTestSession(t)
	sub := s.Subscribe()

	s.PlayTrack(testTrack("t1", "First"))

	select {
	case e := <-sub.TrackChanged:
		if e.Previous != nil {
			t.Errorf("previous = %v, want nil", e.Previous)
		}
		if e.Current == nil || e.Current.ID != "t1" {
			t.Errorf("current = %v, want t1", e.Current)
		}
	default:
		t.Fatal("no track change delivered")
	}
	select {
	case e := <-sub.StateChanged:
		if !e.Playing {
			t.Error("expected playing state change")
		}
	default:
		t.Fatal("no state change delivered")
	}
}

func TestCloseReleasesSubscribers(t *testing.T) {
	s, _, _ := newTestSession(t)
	sub := s.Subscribe()

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-sub.Done:
	case <-time.After(time.Second):
		t.Fatal("subscription not released on close")
	}
	// Idempotent.
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestRepeatModeCycle(t *testing.T) {
	tests := []struct {
		mode RepeatMode
		next RepeatMode
		str  string
	}{
		{RepeatOff, RepeatAll, "off"},
		{RepeatAll, RepeatOne, "all"},
		{RepeatOne, RepeatOff, "one"},
	}
	for _, tt := range tests {
		if got := tt.mode.Next(); got != tt.next {
			t.Errorf("%v.Next() = %v, want %v", tt.mode, got, tt.next)
		}
		if got := tt.mode.storageString(); got != tt.str {
			t.Errorf("%v.storageString() = %q, want %q", tt.mode, got, tt.str)
		}
		if got := repeatModeFromStorage(tt.str); got != tt.mode {
			t.Errorf("repeatModeFromStorage(%q) = %v, want %v", tt.str, got, tt.mode)
		}
	}
	if got := repeatModeFromStorage("bogus"); got != RepeatOff {
		t.Errorf("unknown storage value = %v, want RepeatOff", got)
	}
}
