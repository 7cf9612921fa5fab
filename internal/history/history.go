// Package history records what was played. Every recorder is a write-only,
// best-effort sink: failures are logged by the caller and never affect
// playback.
package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/arcadop/spiderbeats/internal/catalog"
	"github.com/arcadop/spiderbeats/internal/state"
)

// Entry is one play record.
type Entry struct {
	TrackID  string    `json:"track_id"`
	Name     string    `json:"name"`
	Artist   string    `json:"artist"`
	Image    string    `json:"image,omitempty"`
	URL      string    `json:"url,omitempty"`
	Duration int       `json:"duration"` // seconds
	Language string    `json:"language,omitempty"`
	PlayedAt time.Time `json:"played_at"`
}

// EntryFromTrack builds a play record from a catalog track and the URL it
// was played from.
func EntryFromTrack(t catalog.Track, playedURL string) Entry {
	return Entry{
		TrackID:  t.ID,
		Name:     t.Name,
		Artist:   t.PrimaryArtists,
		Image:    t.ArtworkURL(),
		URL:      playedURL,
		Duration: t.Duration,
		Language: t.Language,
		PlayedAt: time.Now(),
	}
}

// Recorder is a one-way play-history sink.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Multi fans a record out to several sinks, logging and swallowing each
// sink's failure independently.
type Multi struct {
	recorders []Recorder
	log       zerolog.Logger
}

// NewMulti creates a fan-out recorder over the given sinks.
func NewMulti(log zerolog.Logger, recorders ...Recorder) *Multi {
	return &Multi{recorders: recorders, log: log}
}

// Record delivers the entry to every sink. It never returns an error: a
// history failure must never block or roll back playback.
func (m *Multi) Record(ctx context.Context, e Entry) error {
	for _, r := range m.recorders {
		if err := r.Record(ctx, e); err != nil {
			m.log.Warn().Err(err).Str("track_id", e.TrackID).Msg("history record failed")
		}
	}
	return nil
}

const (
	localHistoryKey = "spiderbeats_play_history"
	maxLocalHistory = 50
)

// Local keeps the recent-plays list in the state store: newest first,
// deduplicated by track identifier, capped.
type Local struct {
	store state.Interface
}

// NewLocal creates the local recent-plays recorder.
func NewLocal(store state.Interface) *Local {
	return &Local{store: store}
}

func (l *Local) Record(_ context.Context, e Entry) error {
	entries := l.Recent()

	next := make([]Entry, 0, len(entries)+1)
	next = append(next, e)
	for _, old := range entries {
		if old.TrackID == e.TrackID {
			continue
		}
		next = append(next, old)
	}
	if len(next) > maxLocalHistory {
		next = next[:maxLocalHistory]
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return err
	}
	l.store.Set(localHistoryKey, raw)
	return nil
}

// Recent returns the stored recent-plays list, newest first. A corrupt blob
// reads as empty.
func (l *Local) Recent() []Entry {
	raw, ok := l.store.Get(localHistoryKey)
	if !ok {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}
