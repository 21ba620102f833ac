// Package metadata resolves a pasted video URL into the fields of a new track.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/llehouerou/tubeq/internal/playlist"
)

// ErrUnsupportedURL is returned for URLs without a recognizable video ID.
var ErrUnsupportedURL = errors.New("unsupported video url")

// DefaultOEmbedEndpoint is the public oEmbed endpoint for video URLs.
const DefaultOEmbedEndpoint = "https://www.youtube.com/oembed"

// Info is what a fetcher learns about a video.
type Info struct {
	Title     string
	Thumbnail string
	URL       string // canonical watch URL
}

// Fetcher looks up video metadata.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Info, error)
}

// CanonicalURL returns the watch URL for a video ID.
func CanonicalURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ThumbnailURL returns the full-size thumbnail URL for a video ID.
func ThumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/maxresdefault.jpg"
}

func videoID(rawURL string) (string, error) {
	id, ok := playlist.VideoID(rawURL)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}
	return id, nil
}

// Offline derives metadata from the URL alone. The title is a placeholder
// built from the video ID.
type Offline struct{}

// Fetch implements Fetcher.
func (Offline) Fetch(_ context.Context, rawURL string) (Info, error) {
	id, err := videoID(rawURL)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Title:     "Video " + id,
		Thumbnail: ThumbnailURL(id),
		URL:       CanonicalURL(id),
	}, nil
}

// OEmbed fetches the video title from an oEmbed endpoint.
type OEmbed struct {
	endpoint string
	client   *http.Client
}

// NewOEmbed creates an oEmbed fetcher. An empty endpoint means
// DefaultOEmbedEndpoint; a nil client gets a 10 second timeout.
func NewOEmbed(endpoint string, client *http.Client) *OEmbed {
	if endpoint == "" {
		endpoint = DefaultOEmbedEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OEmbed{endpoint: endpoint, client: client}
}

type oembedResponse struct {
	Title string `json:"title"`
}

// Fetch implements Fetcher.
func (o *OEmbed) Fetch(ctx context.Context, rawURL string) (Info, error) {
	id, err := videoID(rawURL)
	if err != nil {
		return Info{}, err
	}
	canonical := CanonicalURL(id)

	q := url.Values{}
	q.Set("url", canonical)
	q.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Info{}, fmt.Errorf("build oembed request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("fetch video info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("fetch video info: %s", resp.Status)
	}

	var body oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Info{}, fmt.Errorf("decode video info: %w", err)
	}

	return Info{
		Title:     body.Title,
		Thumbnail: ThumbnailURL(id),
		URL:       canonical,
	}, nil
}

// Verify fetchers implement Fetcher at compile time.
var (
	_ Fetcher = Offline{}
	_ Fetcher = (*OEmbed)(nil)
)
