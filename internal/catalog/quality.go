package catalog

// fallbackQualities is the fixed descending-bitrate priority used when the
// preferred quality is not available.
var fallbackQualities = []string{"320kbps", "160kbps", "96kbps", "48kbps", "12kbps"}

// AudioURL picks the playable URL for a track's download links.
//
// Resolution order: exact preferred-quality match, then the fixed fallback
// priority, then the first entry. Returns "" when nothing is playable. A
// preferred-quality entry wins even with an empty URL: the track resolves
// unplayable rather than silently degrading quality.
func AudioURL(links []DownloadLink, preferred string) string {
	if len(links) == 0 {
		return ""
	}

	if preferred != "" {
		for _, l := range links {
			if l.Quality == preferred {
				return l.URL
			}
		}
	}

	for _, quality := range fallbackQualities {
		for _, l := range links {
			if l.Quality == quality && l.URL != "" {
				return l.URL
			}
		}
	}

	return links[0].URL
}

// BestAudioURL resolves a track's playable URL for the preferred quality.
func (t Track) BestAudioURL(preferred string) string {
	return AudioURL(t.DownloadURL, preferred)
}
