package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const songDoc = `{
	"success": true,
	"data": [{
		"id": "abc123",
		"name": "Tum Hi Ho &amp; You",
		"duration": 262,
		"language": "hindi",
		"playCount": 1234567,
		"album": {"id": "al1", "name": "Aashiqui 2", "url": "https://example.com/album"},
		"artists": {"primary": [{"id": "ar1", "name": "Arijit Singh"}, {"id": "ar2", "name": "Mithoon"}]},
		"image": [{"quality": "500x500", "url": "https://img.example.com/500.jpg"}],
		"downloadUrl": [
			{"quality": "96kbps", "url": "https://cdn.example.com/96.mp3"},
			{"quality": "320kbps", "url": "https://cdn.example.com/320.mp3"}
		]
	}]
}`

func TestClientSong(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/songs/abc123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("user agent = %q", ua)
		}
		w.Write([]byte(songDoc))
	}))
	defer srv.Close()

	c := New(srv.URL)
	track, err := c.Song(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Song: %v", err)
	}

	if track.ID != "abc123" {
		t.Errorf("id = %q", track.ID)
	}
	if track.Name != "Tum Hi Ho & You" {
		t.Errorf("name = %q, entities not decoded", track.Name)
	}
	if track.PrimaryArtists != "Arijit Singh, Mithoon" {
		t.Errorf("artists = %q", track.PrimaryArtists)
	}
	if track.Duration != 262 || track.PlayCount != 1234567 {
		t.Errorf("duration = %d playCount = %d", track.Duration, track.PlayCount)
	}
	if got := track.BestAudioURL("320kbps"); got != "https://cdn.example.com/320.mp3" {
		t.Errorf("best url = %q", got)
	}
}

func TestClientSongNotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 404", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"empty data", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": true, "data": []}`))
		}},
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": false, "data": []}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New(srv.URL).Song(context.Background(), "nope")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestClientSongServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Song(context.Background(), "abc")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want non-nil non-NotFound", err)
	}
}

func TestClientSearchSongs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/songs" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "tum hi ho" {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q", got)
		}
		w.Write([]byte(`{
			"success": true,
			"data": {"results": [
				{"id": "s1", "name": "One"},
				{"id": "s2", "name": "Two"}
			]}
		}`))
	}))
	defer srv.Close()

	tracks, err := New(srv.URL).SearchSongs(context.Background(), "tum hi ho", 5)
	if err != nil {
		t.Fatalf("SearchSongs: %v", err)
	}
	if len(tracks) != 2 || tracks[0].ID != "s1" || tracks[1].ID != "s2" {
		t.Errorf("tracks = %v", tracks)
	}
}
