// Package search finds candidate tracks for a free-text query.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/llehouerou/tubeq/internal/metadata"
	"github.com/llehouerou/tubeq/internal/playlist"
)

// ErrSuperseded is returned by a debounced searcher when a newer query
// arrived before this one completed.
var ErrSuperseded = errors.New("search superseded by a newer query")

// DefaultDelay is the debounce delay between keystrokes and a search.
const DefaultDelay = 500 * time.Millisecond

// Searcher returns candidate tracks for a query. No results is not an error.
type Searcher interface {
	Search(ctx context.Context, query string) ([]playlist.Track, error)
}

// Source provides the tracks a Library searcher looks through.
type Source interface {
	Tracks() []playlist.Track
}

// Library searches the titles of stored tracks.
type Library struct {
	source Source
}

// NewLibrary creates a searcher over source.
func NewLibrary(source Source) *Library {
	return &Library{source: source}
}

// Search implements Searcher. Results are best match first.
func (l *Library) Search(_ context.Context, query string) ([]playlist.Track, error) {
	tracks := l.source.Tracks()
	titles := lo.Map(tracks, func(t playlist.Track, _ int) string { return t.Title })
	matches := NewTitleIndex(titles).Search(query)
	return lo.Map(matches, func(m Match, _ int) playlist.Track { return tracks[m.Index] }), nil
}

// DefaultYouTubeEndpoint is the video search endpoint of the YouTube Data API.
const DefaultYouTubeEndpoint = "https://www.googleapis.com/youtube/v3/search"

// YouTube searches videos through the YouTube Data API.
type YouTube struct {
	endpoint   string
	apiKey     string
	client     *http.Client
	maxResults int
}

// NewYouTube creates a YouTube searcher. An empty endpoint means
// DefaultYouTubeEndpoint; a nil client gets a 10 second timeout.
func NewYouTube(endpoint, apiKey string, client *http.Client) *YouTube {
	if endpoint == "" {
		endpoint = DefaultYouTubeEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &YouTube{endpoint: endpoint, apiKey: apiKey, client: client, maxResults: 10}
}

type youtubeResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search implements Searcher. Candidate IDs are video IDs.
func (y *YouTube) Search(ctx context.Context, query string) ([]playlist.Track, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("maxResults", strconv.Itoa(y.maxResults))
	q.Set("q", query)
	q.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search videos: %s", resp.Status)
	}

	var body youtubeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	tracks := make([]playlist.Track, 0, len(body.Items))
	for _, item := range body.Items {
		id := item.ID.VideoID
		if id == "" {
			continue
		}
		tracks = append(tracks, playlist.Track{
			ID:        id,
			Title:     html.UnescapeString(item.Snippet.Title),
			Thumbnail: metadata.ThumbnailURL(id),
			URL:       metadata.CanonicalURL(id),
			Source:    playlist.SourceVideo,
		})
	}
	return tracks, nil
}

// Debounced delays each query and drops it if a newer one arrives first,
// either during the delay or while the wrapped search runs.
type Debounced struct {
	next  Searcher
	delay time.Duration
	gen   atomic.Uint64
}

// Debounce wraps next so that only the latest of rapid queries is answered.
func Debounce(next Searcher, delay time.Duration) *Debounced {
	return &Debounced{next: next, delay: delay}
}

// Search implements Searcher.
func (d *Debounced) Search(ctx context.Context, query string) ([]playlist.Track, error) {
	gen := d.gen.Add(1)

	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if d.gen.Load() != gen {
		return nil, ErrSuperseded
	}

	results, err := d.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if d.gen.Load() != gen {
		return nil, ErrSuperseded
	}
	return results, nil
}

// Verify searchers implement Searcher at compile time.
var (
	_ Searcher = (*Library)(nil)
	_ Searcher = (*YouTube)(nil)
	_ Searcher = (*Debounced)(nil)
)
