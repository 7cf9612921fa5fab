package state

import "sync"

// Mock is an in-memory state store for testing.
type Mock struct {
	mu sync.Mutex

	snapshot      Snapshot
	settings      Settings
	blobs         map[string][]byte
	snapshotSaves int
	positionSaves int

	subs []chan Settings
}

// NewMock creates a new in-memory store with default contents.
func NewMock() *Mock {
	return &Mock{
		snapshot: DefaultSnapshot(),
		settings: DefaultSettings(),
		blobs:    make(map[string][]byte),
	}
}

func (m *Mock) LoadSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *Mock) SaveSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = s
	m.snapshotSaves++
}

func (m *Mock) SavePosition(progress float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot.Progress = progress
	m.positionSaves++
}

func (m *Mock) LoadSettings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *Mock) SaveSettings(s Settings) {
	m.mu.Lock()
	m.settings = s
	subs := append([]chan Settings(nil), m.subs...)
	m.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- s:
		default:
		}
	}
}

func (m *Mock) SettingsChanged() <-chan Settings {
	ch := make(chan Settings, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Mock) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.blobs[key]
	return raw, ok
}

func (m *Mock) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), value...)
}

func (m *Mock) Close() error { return nil }

// Test helpers

// SetSnapshot seeds the stored snapshot before a session is constructed.
func (m *Mock) SetSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = s
}

// SnapshotSaves returns how many full-snapshot writes happened.
func (m *Mock) SnapshotSaves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotSaves
}

// PositionSaves returns how many position writes happened.
func (m *Mock) PositionSaves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionSaves
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
