package player

import (
	"sync"
	"time"
)

// Mock is a test double for the audio sink. It records calls and lets tests
// inject the asynchronous events a real sink would emit.
type Mock struct {
	mu sync.Mutex

	gen      uint64
	state    State
	position time.Duration
	duration time.Duration
	level    float64

	loadErr    error
	loadCalls  []string
	playCalls  int
	pauseCalls int
	seekCalls  []time.Duration

	events chan Event
}

// NewMock creates a new mock sink for testing.
func NewMock() *Mock {
	return &Mock{
		state:  Stopped,
		level:  1.0,
		events: make(chan Event, eventBufferSize),
	}
}

func (m *Mock) Load(url string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.loadCalls = append(m.loadCalls, url)
	if m.loadErr != nil {
		m.state = Stopped
		return m.gen, m.loadErr
	}
	m.state = Paused
	m.position = 0
	return m.gen, nil
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.state == Paused {
		m.state = Playing
	}
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Stopped
	m.position = 0
	m.duration = 0
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	if pos < 0 {
		pos = 0
	}
	if m.duration > 0 && pos > m.duration {
		pos = m.duration
	}
	m.position = pos
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() {}

// Test helpers

func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

// EmitMetadata injects a MetadataReady event for the current generation.
func (m *Mock) EmitMetadata(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	gen := m.gen
	m.mu.Unlock()
	m.events <- Event{Type: EventMetadataReady, Generation: gen, Duration: d}
}

// EmitPosition injects a position tick for the current generation.
func (m *Mock) EmitPosition(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	gen := m.gen
	m.mu.Unlock()
	m.events <- Event{Type: EventPosition, Generation: gen, Position: pos}
}

// EmitEnded injects a completion event for the current generation. Like the
// real sink, natural completion detaches the drained source and transitions
// to Stopped before Ended is delivered.
func (m *Mock) EmitEnded() {
	m.mu.Lock()
	gen := m.gen
	m.state = Stopped
	m.position = 0
	m.duration = 0
	m.mu.Unlock()
	m.events <- Event{Type: EventEnded, Generation: gen}
}

// EmitStale injects an event tagged with a superseded generation.
func (m *Mock) EmitStale(t EventType) {
	m.events <- Event{Type: t, Generation: 0}
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
