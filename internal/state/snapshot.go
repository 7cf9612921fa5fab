package state

import (
	"encoding/json"

	"github.com/arcadop/spiderbeats/internal/catalog"
)

// snapshotKey is the fixed namespace the playback snapshot is stored under.
const snapshotKey = "spiderbeats_player_state"

// Snapshot is the durable subset of the playback session's state. It
// deliberately excludes isPlaying and duration: playback never auto-resumes
// across a restart, and duration is re-derived from the sink on load.
type Snapshot struct {
	CurrentTrack *catalog.Track  `json:"currentTrack"`
	Queue        []catalog.Track `json:"queue"`
	Volume       int             `json:"volume"`
	Progress     float64         `json:"progress"` // seconds
	Shuffle      bool            `json:"shuffle"`
	RepeatMode   string          `json:"repeatMode"` // "off", "all" or "one"
}

// DefaultSnapshot returns the state used when nothing is stored.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Queue:      []catalog.Track{},
		Volume:     70,
		RepeatMode: "off",
	}
}

// decodeSnapshot parses a stored blob defensively: any missing or malformed
// field falls back to its default, and a corrupt blob is treated the same as
// nothing stored. Never returns an error.
func decodeSnapshot(raw []byte) Snapshot {
	snap := DefaultSnapshot()
	if len(raw) == 0 {
		return snap
	}

	// Optional fields first, so absence is distinguishable from zero.
	var stored struct {
		CurrentTrack *catalog.Track  `json:"currentTrack"`
		Queue        []catalog.Track `json:"queue"`
		Volume       *int            `json:"volume"`
		Progress     *float64        `json:"progress"`
		Shuffle      *bool           `json:"shuffle"`
		RepeatMode   *string         `json:"repeatMode"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return snap
	}

	snap.CurrentTrack = stored.CurrentTrack
	if stored.Queue != nil {
		snap.Queue = stored.Queue
	}
	if stored.Volume != nil {
		snap.Volume = clampVolume(*stored.Volume)
	}
	if stored.Progress != nil && *stored.Progress > 0 {
		snap.Progress = *stored.Progress
	}
	if stored.Shuffle != nil {
		snap.Shuffle = *stored.Shuffle
	}
	if stored.RepeatMode != nil {
		switch *stored.RepeatMode {
		case "all", "one":
			snap.RepeatMode = *stored.RepeatMode
		}
	}
	return snap
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
