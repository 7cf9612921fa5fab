// Package catalog provides the track model and a client for the catalog API
// that resolves track identifiers to playable metadata.
package catalog

import "strings"

// DownloadLink is one playable variant of a track at a given quality.
type DownloadLink struct {
	Quality string `json:"quality"` // e.g. "320kbps"
	URL     string `json:"url"`
}

// Image is an artwork reference at a given resolution.
type Image struct {
	Quality string `json:"quality"` // e.g. "500x500"
	URL     string `json:"url"`
}

// Album is the album reference carried by a track.
type Album struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Track is an immutable catalog value. The engine never mutates it; the
// catalog API produces it and it flows through the queue and the persisted
// snapshot as-is.
type Track struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Album          Album          `json:"album"`
	PrimaryArtists string         `json:"primaryArtists"`
	Language       string         `json:"language"`
	Duration       int            `json:"duration"` // seconds, 0 when the catalog doesn't know
	PlayCount      int64          `json:"playCount"`
	Image          []Image        `json:"image"`
	DownloadURL    []DownloadLink `json:"downloadUrl"`
}

// ArtworkURL returns the first artwork reference, or "".
func (t Track) ArtworkURL() string {
	if len(t.Image) == 0 {
		return ""
	}
	return t.Image[0].URL
}

var entityReplacer = strings.NewReplacer(
	"&quot;", `"`,
	"&#34;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
)

// DecodeEntities repairs the HTML entities the catalog API leaves in titles
// and artist names.
func DecodeEntities(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(entityReplacer.Replace(s))
}
