package player

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// ErrSuperseded is returned by Load when a newer load replaced this one while
// its fetch was still in flight. The superseded caller must not touch the
// sink further; the newer load owns it.
var ErrSuperseded = errors.New("load superseded")

const (
	eventBufferSize  = 64
	positionInterval = 200 * time.Millisecond
)

// The speaker is process-global in beep: initialize it once with the sample
// rate of the first source and resample later sources onto it.
var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// ensureSpeaker initializes the global speaker on first use and returns the
// sample rate every source must be resampled onto.
func ensureSpeaker(format beep.Format) (beep.SampleRate, error) {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if !speakerInitialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return 0, fmt.Errorf("speaker init: %w", err)
		}
		speakerSampleRate = format.SampleRate
		speakerInitialized = true
	}
	return speakerSampleRate, nil
}

// Player is the audio sink: it owns the one real audio output and exactly one
// active source at a time.
type Player struct {
	mu sync.Mutex

	gen      uint64
	state    State
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	volumeLevel float64

	httpClient *http.Client

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// New creates the audio sink. The caller owns it for the session lifetime.
func New() *Player {
	p := &Player{
		state:       Stopped,
		volumeLevel: 1.0,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		events:      make(chan Event, eventBufferSize),
		done:        make(chan struct{}),
	}
	go p.positionLoop()
	return p
}

// readSeekCloser adapts a bytes.Reader to the io.ReadCloser the decoder
// wants while staying seekable for Len/Seek support.
type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

// Load fetches the URL, decodes it and attaches it as the sink's source,
// paused. Catalog variants are single MP3 files, so the body is buffered in
// memory: the decoder needs a seekable reader to report length and seek.
//
// Loads may race (a user skip against an auto-advance); the slower fetch
// loses and returns ErrSuperseded without attaching.
func (p *Player) Load(url string) (uint64, error) {
	p.Stop()

	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	body, err := p.fetch(url)
	if err != nil {
		return gen, err
	}

	streamer, format, err := mp3.Decode(readSeekCloser{bytes.NewReader(body)})
	if err != nil {
		return gen, fmt.Errorf("decode: %w", err)
	}

	sampleRate, err := ensureSpeaker(format)
	if err != nil {
		streamer.Close()
		return gen, err
	}

	if err := p.attach(gen, streamer, format, sampleRate); err != nil {
		return gen, err
	}
	return gen, nil
}

// attach installs a decoded source, unless a newer load took over while this
// one was fetching. Holding the lock across speaker.Play keeps a concurrent
// Stop from clearing the mixer between attach and play.
func (p *Player) attach(gen uint64, streamer beep.StreamSeekCloser, format beep.Format, sampleRate beep.SampleRate) error {
	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		streamer.Close()
		return ErrSuperseded
	}

	p.streamer = streamer
	p.format = format

	var playStreamer beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}
	p.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: true}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2, Volume: levelToVolume(p.volumeLevel)}
	p.state = Paused

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		// Runs on the speaker goroutine with its lock held; the state
		// transition needs p.mu, so hand it off.
		go p.finish(gen)
	})))
	p.mu.Unlock()

	p.emitGuaranteed(Event{
		Type:       EventMetadataReady,
		Generation: gen,
		Duration:   format.SampleRate.D(streamer.Len()),
	})
	return nil
}

// finish handles natural completion: the mixer has already dropped the
// drained seq, so detach the dead source and report Stopped before Ended is
// delivered.
func (p *Player) finish(gen uint64) {
	p.mu.Lock()
	if p.gen != gen || p.state == Stopped {
		p.mu.Unlock()
		return
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.ctrl = nil
	p.volume = nil
	p.state = Stopped
	p.mu.Unlock()

	p.emitGuaranteed(Event{Type: EventEnded, Generation: gen})
}

func (p *Player) fetch(url string) ([]byte, error) {
	resp, err := p.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return body, nil
}

// Play starts or resumes the attached source. No-op without a source.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil || p.state == Playing {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

// Pause pauses playback. No-op unless playing.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil || p.state != Playing {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

// Stop detaches the source and releases it. Never emits Ended.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Stopped {
		return
	}

	speaker.Clear()

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.ctrl = nil
	p.volume = nil
	p.state = Stopped
}

// SeekTo jumps to the given position, clamped to the source bounds.
func (p *Player) SeekTo(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return
	}

	n := p.format.SampleRate.N(pos)
	n = max(n, 0)
	n = min(n, p.streamer.Len())

	speaker.Lock()
	// Mute around the seek to avoid an audible click (the decoder restarts
	// mid-frame).
	wasSilent := p.volume.Silent
	p.volume.Silent = true
	_ = p.streamer.Seek(n)
	p.volume.Silent = wasSilent
	speaker.Unlock()
}

// State returns the current sink state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the attached source's duration, 0 when none is attached.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

// Generation returns the generation of the current load.
func (p *Player) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Events returns the sink's event stream.
func (p *Player) Events() <-chan Event {
	return p.events
}

// Close stops playback and shuts down the event loop.
func (p *Player) Close() {
	p.Stop()
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// emit sends an event without blocking; the sink never stalls on a slow
// consumer, it drops. Position ticks only: losing one is harmless, the next
// tick replaces it.
func (p *Player) emit(e Event) {
	select {
	case p.events <- e:
	default:
	}
}

// emitGuaranteed delivers lifecycle events (MetadataReady, Ended) that must
// not be lost to a full buffer. Ordinary backpressure resolves as soon as the
// consumer drains a position tick; Close unblocks a consumer that is gone.
func (p *Player) emitGuaranteed(e Event) {
	select {
	case p.events <- e:
	case <-p.done:
	}
}

// positionLoop drives the high-frequency position signal while playing.
func (p *Player) positionLoop() {
	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.state != Playing || p.streamer == nil {
				p.mu.Unlock()
				continue
			}
			gen := p.gen
			speaker.Lock()
			pos := p.format.SampleRate.D(p.streamer.Position())
			speaker.Unlock()
			p.mu.Unlock()

			p.emit(Event{Type: EventPosition, Generation: gen, Position: pos})
		}
	}
}
