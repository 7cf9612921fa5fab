// Package playlist holds the play queue: an ordered list of catalog tracks.
package playlist

import "github.com/arcadop/spiderbeats/internal/catalog"

// Queue is an ordered sequence of tracks. Insertion order is meaningful and
// duplicates by identifier are allowed (the same track may legitimately
// appear twice). The playback session owns the queue exclusively and tracks
// the current position by identifier, not by stored index.
type Queue struct {
	tracks []catalog.Track
}

// New creates a new empty queue.
func New() *Queue {
	return &Queue{}
}

// Append adds tracks to the end of the queue without affecting playback.
func (q *Queue) Append(tracks ...catalog.Track) {
	q.tracks = append(q.tracks, tracks...)
}

// Replace swaps the queue contents wholesale. It does not start playback.
func (q *Queue) Replace(tracks []catalog.Track) {
	q.tracks = make([]catalog.Track, len(tracks))
	copy(q.tracks, tracks)
}

// Clear removes all tracks.
func (q *Queue) Clear() {
	q.tracks = nil
}

// IndexOf returns the index of the first track with the given identifier,
// or -1 if the queue doesn't contain it. With duplicate identifiers the
// first occurrence wins.
func (q *Queue) IndexOf(id string) int {
	for i, t := range q.tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// At returns the track at the given index, or nil if out of range.
func (q *Queue) At(index int) *catalog.Track {
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	t := q.tracks[index]
	return &t
}

// Tracks returns a copy of all tracks in the queue.
func (q *Queue) Tracks() []catalog.Track {
	result := make([]catalog.Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}
