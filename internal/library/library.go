package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/llehouerou/tubeq/internal/playlist"
	"github.com/llehouerou/tubeq/internal/state"
)

var (
	ErrNotFound   = errors.New("track not found")
	ErrEmptyTitle = errors.New("track title is empty")
	ErrEmptyURL   = errors.New("track url is empty")
)

// Library is the track store: every track the user has added, in the order
// they were added, persisted as one blob.
type Library struct {
	store state.Store

	mu     sync.RWMutex
	tracks []playlist.Track
}

// Load reads the saved track list. A missing blob yields an empty library.
func Load(ctx context.Context, store state.Store) (*Library, error) {
	var tracks []playlist.Track
	if _, err := state.LoadJSON(ctx, store, state.KeyTracks, &tracks); err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}
	if tracks == nil {
		tracks = []playlist.Track{}
	}
	return &Library{store: store, tracks: tracks}, nil
}

// NewID returns a fresh time-ordered track or playlist identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Tracks returns a copy of all tracks.
func (l *Library) Tracks() []playlist.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.tracks)
}

// Len returns the number of tracks.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

// Get returns the track with the given ID.
func (l *Library) Get(id string) (playlist.Track, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := lo.Find(l.tracks, func(t playlist.Track) bool { return t.ID == id })
	if !ok {
		return playlist.Track{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// Filter returns tracks in library order whose ID satisfies keep.
func (l *Library) Filter(keep func(id string) bool) []playlist.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Filter(l.tracks, func(t playlist.Track, _ int) bool { return keep(t.ID) })
}

// Add validates t, assigns it a new ID and saves the library.
// The library is unchanged if saving fails.
func (l *Library) Add(ctx context.Context, t playlist.Track) (playlist.Track, error) {
	t.Title = strings.TrimSpace(t.Title)
	t.URL = strings.TrimSpace(t.URL)
	if t.Title == "" {
		return playlist.Track{}, ErrEmptyTitle
	}
	if t.URL == "" {
		return playlist.Track{}, ErrEmptyURL
	}
	t.ID = NewID()

	l.mu.Lock()
	defer l.mu.Unlock()

	next := append(slices.Clone(l.tracks), t)
	if err := state.SaveJSON(ctx, l.store, state.KeyTracks, next); err != nil {
		return playlist.Track{}, fmt.Errorf("save tracks: %w", err)
	}
	l.tracks = next
	return t, nil
}

// Remove drops the track from memory and stages the new list into b.
// The caller writes b, usually together with other stores, and calls undo
// if that write fails.
func (l *Library) Remove(id string, b state.Batch) (removed playlist.Track, undo func(), err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.tracks, func(t playlist.Track) bool { return t.ID == id })
	if idx < 0 {
		return playlist.Track{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed = l.tracks[idx]
	next := slices.Delete(slices.Clone(l.tracks), idx, idx+1)
	if err := b.Put(state.KeyTracks, next); err != nil {
		return removed, nil, err
	}
	l.tracks = next

	undo = func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if slices.ContainsFunc(l.tracks, func(t playlist.Track) bool { return t.ID == id }) {
			return
		}
		l.tracks = slices.Insert(l.tracks, min(idx, len(l.tracks)), removed)
	}
	return removed, undo, nil
}
