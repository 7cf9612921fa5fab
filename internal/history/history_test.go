package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arcadop/spiderbeats/internal/catalog"
	"github.com/arcadop/spiderbeats/internal/state"
)

func entry(id string) Entry {
	return Entry{
		TrackID:  id,
		Name:     "Track " + id,
		Artist:   "Artist",
		Duration: 180,
		PlayedAt: time.Now(),
	}
}

func TestLocalRecordDedupes(t *testing.T) {
	l := NewLocal(state.NewMock())
	ctx := context.Background()

	l.Record(ctx, entry("a"))
	l.Record(ctx, entry("b"))
	l.Record(ctx, entry("a")) // replay moves to front, no duplicate

	got := l.Recent()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].TrackID != "a" || got[1].TrackID != "b" {
		t.Errorf("order = [%s %s], want [a b]", got[0].TrackID, got[1].TrackID)
	}
}

func TestLocalRecordCaps(t *testing.T) {
	l := NewLocal(state.NewMock())
	ctx := context.Background()

	for i := 0; i < maxLocalHistory+10; i++ {
		l.Record(ctx, entry(fmt.Sprintf("t%d", i)))
	}

	got := l.Recent()
	if len(got) != maxLocalHistory {
		t.Fatalf("len = %d, want %d", len(got), maxLocalHistory)
	}
	if got[0].TrackID != fmt.Sprintf("t%d", maxLocalHistory+9) {
		t.Errorf("newest = %s", got[0].TrackID)
	}
}

func TestLocalRecentCorruptBlob(t *testing.T) {
	store := state.NewMock()
	store.Set(localHistoryKey, []byte("{corrupt"))

	l := NewLocal(store)
	if got := l.Recent(); got != nil {
		t.Errorf("corrupt blob read as %v, want nil", got)
	}
	// A record after corruption starts a fresh list.
	l.Record(context.Background(), entry("a"))
	if got := l.Recent(); len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestEntryFromTrack(t *testing.T) {
	track := catalog.Track{
		ID:             "t1",
		Name:           "Song",
		PrimaryArtists: "Someone",
		Language:       "hindi",
		Duration:       200,
		Image:          []catalog.Image{{Quality: "500x500", URL: "https://img/art.jpg"}},
	}
	e := EntryFromTrack(track, "https://cdn/320.mp3")

	if e.TrackID != "t1" || e.Artist != "Someone" || e.Duration != 200 {
		t.Errorf("entry = %+v", e)
	}
	if e.Image != "https://img/art.jpg" || e.URL != "https://cdn/320.mp3" {
		t.Errorf("entry urls = %+v", e)
	}
	if e.PlayedAt.IsZero() {
		t.Error("played_at not stamped")
	}
}

type failingRecorder struct{ calls int }

func (f *failingRecorder) Record(context.Context, Entry) error {
	f.calls++
	return errors.New("boom")
}

func TestMultiSwallowsFailures(t *testing.T) {
	first := &failingRecorder{}
	local := NewLocal(state.NewMock())
	m := NewMulti(zerolog.Nop(), first, local)

	if err := m.Record(context.Background(), entry("a")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.calls != 1 {
		t.Errorf("first recorder calls = %d", first.calls)
	}
	// The failure of one sink must not skip the others.
	if got := local.Recent(); len(got) != 1 {
		t.Errorf("local entries = %d, want 1", len(got))
	}
}

func TestRemoteRecord(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		if got := r.Header.Get("apikey"); got != "secret" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "secret")
	if err := r.Record(context.Background(), entry("t1")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if received["track_id"] != "t1" {
		t.Errorf("track_id = %v", received["track_id"])
	}
	if id, _ := received["id"].(string); id == "" {
		t.Error("record id missing")
	}
}

func TestRemoteRecordRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if err := NewRemote(srv.URL, "bad").Record(context.Background(), entry("t1")); err == nil {
		t.Error("expected error on 401")
	}
}
