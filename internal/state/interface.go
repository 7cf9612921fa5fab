package state

// Interface defines the state store contract for dependency injection and
// testing.
type Interface interface {
	// Snapshot of the playback session's durable fields.
	LoadSnapshot() Snapshot
	SaveSnapshot(s Snapshot)
	// SavePosition rewrites the last snapshot with a new progress value,
	// throttled so scrub-position writes during playback stay bounded.
	SavePosition(progress float64)

	// App settings with change notification.
	LoadSettings() Settings
	SaveSettings(s Settings)
	SettingsChanged() <-chan Settings

	// Raw namespaced blobs (used by the play-history recorder).
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)

	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
