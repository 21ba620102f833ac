package playlist

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
)

// SourceKind identifies which player backend can play a track.
type SourceKind int

const (
	SourceVideo SourceKind = iota // embedded video player, keyed by video ID
	SourceAudio                   // direct audio element, keyed by preview URL
)

// String returns the source kind name.
func (k SourceKind) String() string {
	switch k {
	case SourceVideo:
		return "video"
	case SourceAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k SourceKind) MarshalText() ([]byte, error) {
	switch k {
	case SourceVideo, SourceAudio:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown source kind %d", int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SourceKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "video", "":
		*k = SourceVideo
	case "audio":
		*k = SourceAudio
	default:
		return fmt.Errorf("unknown source kind %q", text)
	}
	return nil
}

// Track is a playable media reference.
type Track struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Thumbnail  string     `json:"thumbnail"`
	URL        string     `json:"url"`
	PreviewURL string     `json:"previewUrl,omitempty"`
	Source     SourceKind `json:"source"`
}

// UnmarshalJSON accepts the legacy isExternalSource flag, which marked
// tracks that only play through their preview clip.
func (t *Track) UnmarshalJSON(data []byte) error {
	type plain Track
	var raw struct {
		plain
		External bool `json:"isExternalSource"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Track(raw.plain)
	if raw.External {
		t.Source = SourceAudio
	}
	return nil
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
}

// VideoID extracts the video identifier from a watch, short or embed URL.
func VideoID(rawURL string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// MediaID returns the identifier the track's backend loads: the video ID
// for video tracks, the preview URL for audio tracks.
func (t Track) MediaID() (string, error) {
	switch t.Source {
	case SourceVideo:
		id, ok := VideoID(t.URL)
		if !ok {
			return "", fmt.Errorf("no video id in %q", t.URL)
		}
		return id, nil
	case SourceAudio:
		u, err := url.Parse(t.PreviewURL)
		if err != nil {
			return "", fmt.Errorf("parse preview url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", fmt.Errorf("preview url %q is not an http url", t.PreviewURL)
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("unknown source kind %d", int(t.Source))
	}
}
