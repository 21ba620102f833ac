// Package app ties the stores, the playback service and the collaborators
// together into the operations a user performs.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/history"
	"github.com/llehouerou/tubeq/internal/library"
	"github.com/llehouerou/tubeq/internal/metadata"
	"github.com/llehouerou/tubeq/internal/playback"
	"github.com/llehouerou/tubeq/internal/player"
	"github.com/llehouerou/tubeq/internal/playlist"
	"github.com/llehouerou/tubeq/internal/playlists"
	"github.com/llehouerou/tubeq/internal/search"
	"github.com/llehouerou/tubeq/internal/state"
)

var (
	ErrEmptyURL      = errors.New("url is empty")
	ErrInvalidURL    = errors.New("not a recognized video url")
	ErrNothingToPlay = errors.New("nothing to play")
	ErrEmptyQuery    = errors.New("search query is empty")
	// ErrUpstream wraps failures of the metadata and search collaborators.
	ErrUpstream = errors.New("lookup failed")
)

// Options configures an App. Zero values select defaults.
type Options struct {
	Backends      []player.Backend
	Fetcher       metadata.Fetcher // default metadata.Offline
	Searcher      search.Searcher  // default library title search
	QueueOptions  []playlist.Option
	DefaultVolume int // used when no volume was saved; default playback.DefaultVolume
	Logger        *zap.Logger
}

// App is the running application state.
type App struct {
	Store     state.Store
	Library   *library.Library
	Playlists *playlists.Playlists
	History   *history.History
	Playback  playback.Service

	fetcher  metadata.Fetcher
	searcher search.Searcher
	volume   *state.VolumeSaver
	logger   *zap.Logger

	// mu orders library lookups that feed the queue or playlists against
	// DeleteTrack, so a deleted track cannot be queued or linked again.
	mu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New loads saved state from store and builds the playback service.
// The caller keeps ownership of store.
func New(ctx context.Context, store state.Store, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lib, err := library.Load(ctx, store)
	if err != nil {
		return nil, err
	}
	pls, err := playlists.Load(ctx, store)
	if err != nil {
		return nil, err
	}
	hist, err := history.Load(ctx, store)
	if err != nil {
		return nil, err
	}

	level, muted := opts.DefaultVolume, false
	if level <= 0 {
		level = playback.DefaultVolume
	}
	saved, err := state.GetVolume(ctx, store)
	if err != nil {
		logger.Warn("load volume, using default", zap.Error(err))
	} else if saved != nil {
		level, muted = saved.Level, saved.Muted
	}

	svc := playback.New(
		playlist.NewQueue(opts.QueueOptions...),
		opts.Backends,
		playback.WithLogger(logger.Named("playback")),
		playback.WithVolume(level, muted),
	)

	a := &App{
		Store:     store,
		Library:   lib,
		Playlists: pls,
		History:   hist,
		Playback:  svc,
		fetcher:   opts.Fetcher,
		searcher:  opts.Searcher,
		volume:    state.NewVolumeSaver(store, logger),
		logger:    logger,
	}
	if a.fetcher == nil {
		a.fetcher = metadata.Offline{}
	}
	if a.searcher == nil {
		a.searcher = search.NewLibrary(lib)
	}
	return a, nil
}

// Start runs the playback event loop, play history recording and volume
// persistence in the background until Close.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	historySub := a.Playback.Subscribe()
	volumeSub := a.Playback.Subscribe()

	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		if err := a.Playback.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("playback loop", zap.Error(err))
		}
	}()
	go func() {
		defer a.wg.Done()
		a.History.Follow(ctx, historySub, a.logger)
	}()
	go func() {
		defer a.wg.Done()
		a.persistVolume(ctx, volumeSub)
	}()
}

func (a *App) persistVolume(ctx context.Context, sub *playback.Subscription) {
	for {
		select {
		case v := <-sub.VolumeChanged:
			a.volume.Save(state.VolumeState{Level: v.Level, Muted: v.Muted})
		case <-sub.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Close stops background work, releases the player and flushes pending
// writes. It does not close the store.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	err := a.Playback.Close()
	a.wg.Wait()
	a.volume.Close()
	return err
}

// AddSong looks up a video URL and stores it as a new track, also adding
// it to playlistID when given. Nothing is stored if any step fails.
func (a *App) AddSong(ctx context.Context, rawURL, playlistID string) (playlist.Track, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return playlist.Track{}, ErrEmptyURL
	}
	if _, ok := playlist.VideoID(rawURL); !ok {
		return playlist.Track{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if err := a.checkPlaylist(playlistID); err != nil {
		return playlist.Track{}, err
	}

	info, err := a.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return playlist.Track{}, fmt.Errorf("%w: fetch metadata: %w", ErrUpstream, err)
	}
	title := info.Title
	if strings.TrimSpace(title) == "" {
		title = info.URL
	}

	return a.addTrack(ctx, playlist.Track{
		Title:     title,
		Thumbnail: info.Thumbnail,
		URL:       info.URL,
		Source:    playlist.SourceVideo,
	}, playlistID)
}

// AcceptResult stores a search candidate as a new track under a fresh ID,
// also adding it to playlistID when given.
func (a *App) AcceptResult(ctx context.Context, candidate playlist.Track, playlistID string) (playlist.Track, error) {
	if err := a.checkPlaylist(playlistID); err != nil {
		return playlist.Track{}, err
	}
	return a.addTrack(ctx, candidate, playlistID)
}

func (a *App) checkPlaylist(playlistID string) error {
	if playlistID == "" {
		return nil
	}
	_, err := a.Playlists.Get(playlistID)
	return err
}

func (a *App) addTrack(ctx context.Context, t playlist.Track, playlistID string) (playlist.Track, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	added, err := a.Library.Add(ctx, t)
	if err != nil {
		return playlist.Track{}, err
	}
	if playlistID != "" {
		if _, err := a.Playlists.AddTrack(ctx, playlistID, added.ID); err != nil {
			return added, fmt.Errorf("add to playlist: %w", err)
		}
	}
	a.logger.Info("song added", zap.String("track", added.ID), zap.String("title", added.Title))
	return added, nil
}

// DeleteTrack removes a track from the library, from every playlist and
// from the play queue, then writes both stores in one batch. If the write
// fails, the library and playlists are put back and the queue is left alone.
func (a *App) DeleteTrack(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	b := state.Batch{}
	removed, undoLibrary, err := a.Library.Remove(id, b)
	if err != nil {
		return err
	}
	changed, undoPlaylists, err := a.Playlists.PurgeTrack(id, b)
	if err != nil {
		undoLibrary()
		return err
	}
	if err := a.Store.SaveBatch(ctx, b); err != nil {
		undoPlaylists()
		undoLibrary()
		a.logger.Error("save after delete", zap.String("track", id), zap.Error(err))
		return fmt.Errorf("save after delete: %w", err)
	}
	a.Playback.RemoveTrack(id)

	a.logger.Info("song deleted",
		zap.String("track", id), zap.String("title", removed.Title), zap.Int("playlists", changed))
	return nil
}

// Search returns candidates for query.
func (a *App) Search(ctx context.Context, query string) ([]playlist.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	results, err := a.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return results, nil
}

// Enqueue appends a stored track to the play queue.
func (a *App) Enqueue(trackID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, err := a.Library.Get(trackID)
	if err != nil {
		return err
	}
	a.Playback.Enqueue(t)
	return nil
}

// PlayNow replaces the queue with a single stored track.
func (a *App) PlayNow(trackID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, err := a.Library.Get(trackID)
	if err != nil {
		return err
	}
	a.Playback.Replace(t)
	return nil
}

// PlayAll replaces the queue with the playlist's tracks in library order,
// or with the whole library when playlistID is empty.
func (a *App) PlayAll(playlistID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var tracks []playlist.Track
	if playlistID == "" {
		tracks = a.Library.Tracks()
	} else {
		pl, err := a.Playlists.Get(playlistID)
		if err != nil {
			return err
		}
		tracks = a.Library.Filter(pl.Contains)
	}
	if len(tracks) == 0 {
		return ErrNothingToPlay
	}
	a.Playback.Replace(tracks...)
	return nil
}

// TogglePlaylistTrack adds or removes a stored track from a playlist and
// reports whether it is now in the playlist.
func (a *App) TogglePlaylistTrack(ctx context.Context, playlistID, trackID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.Library.Get(trackID); err != nil {
		return false, err
	}
	return a.Playlists.Toggle(ctx, playlistID, trackID)
}
