package state

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "spiderbeats"
	dbFileName = "spiderbeats.db"

	// positionWriteInterval bounds snapshot writes while position advances
	// during playback. A crash loses at most this much scrub position.
	positionWriteInterval = 1500 * time.Millisecond
)

// Manager owns the durable store: playback snapshot, app settings and the
// recorders' blobs, all JSON under fixed namespace keys.
type Manager struct {
	db *sql.DB

	mu           sync.Mutex
	lastSnapshot Snapshot
	lastPosWrite time.Time

	subsMu sync.Mutex
	subs   []chan Settings
}

func Open() (*Manager, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	m := &Manager{db: db}
	m.lastSnapshot = m.LoadSnapshot()
	return m, nil
}

// LoadSnapshot reads the persisted playback snapshot, falling back to
// defaults for anything missing or corrupt.
func (m *Manager) LoadSnapshot() Snapshot {
	raw, _ := getValue(m.db, snapshotKey)
	return decodeSnapshot(raw)
}

// SaveSnapshot overwrites the full snapshot immediately. Called on every
// state-changing command.
func (m *Manager) SaveSnapshot(s Snapshot) {
	m.mu.Lock()
	m.lastSnapshot = s
	m.mu.Unlock()
	m.write(snapshotKey, s)
}

// SavePosition rewrites the last snapshot with a new progress value. Writes
// are throttled: calls inside the interval skip the database write, not
// defer it. The in-memory snapshot always keeps the latest position so Close
// can flush it.
func (m *Manager) SavePosition(progress float64) {
	m.mu.Lock()
	m.lastSnapshot.Progress = progress
	now := time.Now()
	if now.Sub(m.lastPosWrite) < positionWriteInterval {
		m.mu.Unlock()
		return
	}
	m.lastPosWrite = now
	snap := m.lastSnapshot
	m.mu.Unlock()

	m.write(snapshotKey, snap)
}

// LoadSettings reads the persisted app settings.
func (m *Manager) LoadSettings() Settings {
	raw, _ := getValue(m.db, settingsKey)
	return decodeSettings(raw)
}

// SaveSettings persists the settings and notifies subscribers.
func (m *Manager) SaveSettings(s Settings) {
	m.write(settingsKey, s)

	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, sub := range m.subs {
		select {
		case sub <- s:
		default:
		}
	}
}

// SettingsChanged returns a channel receiving every settings save. This is
// the in-process propagation path between the settings surface and the
// engine; each process owns its own transport state, so snapshots are not
// re-read on this signal.
func (m *Manager) SettingsChanged() <-chan Settings {
	ch := make(chan Settings, 1)
	m.subsMu.Lock()
	m.subs = append(m.subs, ch)
	m.subsMu.Unlock()
	return ch
}

// Get reads a raw blob by namespace key.
func (m *Manager) Get(key string) ([]byte, bool) {
	return getValue(m.db, key)
}

// Set writes a raw blob under a namespace key.
func (m *Manager) Set(key string, value []byte) {
	_ = setValue(m.db, key, value, time.Now().Unix())
}

func (m *Manager) write(key string, doc any) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	_ = setValue(m.db, key, raw, time.Now().Unix())
}

// Close flushes the last snapshot and closes the database.
func (m *Manager) Close() error {
	m.mu.Lock()
	snap := m.lastSnapshot
	m.mu.Unlock()
	m.write(snapshotKey, snap)

	return m.db.Close()
}
