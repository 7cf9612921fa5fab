package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/shkh/lastfm-go/lastfm"
)

// ErrNotAuthenticated is returned when scrobbling has no session key.
var ErrNotAuthenticated = errors.New("not authenticated")

// Scrobbler submits play records to Last.fm.
type Scrobbler struct {
	api        *lastfm.Api
	sessionKey string
}

// NewScrobbler creates a Last.fm recorder with the given API credentials and
// session key.
func NewScrobbler(apiKey, apiSecret, sessionKey string) *Scrobbler {
	api := lastfm.New(apiKey, apiSecret)
	if sessionKey != "" {
		api.SetSession(sessionKey)
	}
	return &Scrobbler{api: api, sessionKey: sessionKey}
}

// IsAuthenticated returns true if a session key is set.
func (s *Scrobbler) IsAuthenticated() bool {
	return s.sessionKey != ""
}

func (s *Scrobbler) Record(_ context.Context, e Entry) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	params := lastfm.P{
		"artist":    e.Artist,
		"track":     e.Name,
		"timestamp": e.PlayedAt.Unix(),
	}
	if e.Duration > 0 {
		params["duration"] = e.Duration
	}

	if _, err := s.api.Track.Scrobble(params); err != nil {
		return fmt.Errorf("scrobble: %w", err)
	}
	return nil
}
