package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when the catalog has no track for an identifier.
var ErrNotFound = errors.New("track not found")

const userAgent = "spiderbeats/1.0 (https://github.com/arcadop/spiderbeats)"

// Client is a catalog API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new catalog client for the given API base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// apiArtist is an artist entry in the catalog song document.
type apiArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// apiSong is the catalog's song document.
type apiSong struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
	Language string `json:"language"`
	Album    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"album"`
	PlayCount int64 `json:"playCount"`
	Artists   struct {
		Primary []apiArtist `json:"primary"`
	} `json:"artists"`
	Image       []Image        `json:"image"`
	DownloadURL []DownloadLink `json:"downloadUrl"`
}

func (s apiSong) toTrack() Track {
	artists := make([]string, 0, len(s.Artists.Primary))
	for _, a := range s.Artists.Primary {
		artists = append(artists, DecodeEntities(a.Name))
	}
	return Track{
		ID:   s.ID,
		Name: DecodeEntities(s.Name),
		Album: Album{
			ID:   s.Album.ID,
			Name: DecodeEntities(s.Album.Name),
			URL:  s.Album.URL,
		},
		PrimaryArtists: strings.Join(artists, ", "),
		Language:       s.Language,
		Duration:       s.Duration,
		PlayCount:      s.PlayCount,
		Image:          s.Image,
		DownloadURL:    s.DownloadURL,
	}
}

// Song resolves a track identifier to full track data, including the ranked
// download-URL list.
func (c *Client) Song(ctx context.Context, id string) (*Track, error) {
	var envelope struct {
		Success bool      `json:"success"`
		Data    []apiSong `json:"data"`
	}
	if err := c.get(ctx, "/songs/"+url.PathEscape(id), nil, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success || len(envelope.Data) == 0 {
		return nil, ErrNotFound
	}
	track := envelope.Data[0].toTrack()
	return &track, nil
}

// SearchSongs searches the catalog for songs matching the query.
func (c *Client) SearchSongs(ctx context.Context, query string, limit int) ([]Track, error) {
	params := url.Values{}
	params.Set("query", query)
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Results []apiSong `json:"results"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/search/songs", params, &envelope); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(envelope.Data.Results))
	for _, s := range envelope.Data.Results {
		tracks = append(tracks, s.toTrack())
	}
	return tracks, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
