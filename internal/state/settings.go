package state

import "encoding/json"

// settingsKey is the fixed namespace the app settings are stored under.
const settingsKey = "spiderbeats_settings"

// Settings are the user-toggled preferences the engine consumes. Crossfade is
// carried for the settings surface but nothing mixes audio with it.
type Settings struct {
	NewReleases        bool     `json:"newReleases"`
	PlaylistUpdates    bool     `json:"playlistUpdates"`
	Recommendations    bool     `json:"recommendations"`
	AudioQuality       string   `json:"audioQuality"`
	DownloadQuality    string   `json:"downloadQuality"` // "320kbps", "160kbps" or "96kbps"
	PreferredLanguages []string `json:"preferredLanguages"`
	Crossfade          bool     `json:"crossfade"`
	Autoplay           bool     `json:"autoplay"`
	Theme              string   `json:"theme"` // "spiderman" or "classic"
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		NewReleases:        true,
		PlaylistUpdates:    true,
		Recommendations:    true,
		AudioQuality:       "high",
		DownloadQuality:    "320kbps",
		PreferredLanguages: []string{"Hindi", "English"},
		Autoplay:           true,
		Theme:              "spiderman",
	}
}

// decodeSettings parses stored settings defensively, defaulting every absent
// or malformed field.
func decodeSettings(raw []byte) Settings {
	settings := DefaultSettings()
	if len(raw) == 0 {
		return settings
	}

	var stored struct {
		NewReleases        *bool    `json:"newReleases"`
		PlaylistUpdates    *bool    `json:"playlistUpdates"`
		Recommendations    *bool    `json:"recommendations"`
		AudioQuality       *string  `json:"audioQuality"`
		DownloadQuality    *string  `json:"downloadQuality"`
		PreferredLanguages []string `json:"preferredLanguages"`
		Crossfade          *bool    `json:"crossfade"`
		Autoplay           *bool    `json:"autoplay"`
		Theme              *string  `json:"theme"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return settings
	}

	if stored.NewReleases != nil {
		settings.NewReleases = *stored.NewReleases
	}
	if stored.PlaylistUpdates != nil {
		settings.PlaylistUpdates = *stored.PlaylistUpdates
	}
	if stored.Recommendations != nil {
		settings.Recommendations = *stored.Recommendations
	}
	if stored.AudioQuality != nil {
		settings.AudioQuality = *stored.AudioQuality
	}
	if stored.DownloadQuality != nil {
		settings.DownloadQuality = *stored.DownloadQuality
	}
	if stored.PreferredLanguages != nil {
		settings.PreferredLanguages = stored.PreferredLanguages
	}
	if stored.Crossfade != nil {
		settings.Crossfade = *stored.Crossfade
	}
	if stored.Autoplay != nil {
		settings.Autoplay = *stored.Autoplay
	}
	if stored.Theme != nil && (*stored.Theme == "spiderman" || *stored.Theme == "classic") {
		settings.Theme = *stored.Theme
	}
	return settings
}
