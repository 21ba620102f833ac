package playlists

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/llehouerou/tubeq/internal/state"
)

var (
	ErrNotFound  = errors.New("playlist not found")
	ErrEmptyName = errors.New("playlist name is empty")
)

// Playlist is a named, ordered set of track IDs.
type Playlist struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	SongIDs []string `json:"songIds"`
}

// Contains reports whether the playlist holds trackID.
func (p Playlist) Contains(trackID string) bool {
	return slices.Contains(p.SongIDs, trackID)
}

func (p Playlist) clone() Playlist {
	p.SongIDs = slices.Clone(p.SongIDs)
	return p
}

// Playlists is the playlist store. All playlists are saved together as
// one blob after every change.
type Playlists struct {
	store state.Store

	mu    sync.RWMutex
	lists []Playlist
}

// Load reads the saved playlists. A missing blob yields no playlists.
func Load(ctx context.Context, store state.Store) (*Playlists, error) {
	var lists []Playlist
	if _, err := state.LoadJSON(ctx, store, state.KeyPlaylists, &lists); err != nil {
		return nil, fmt.Errorf("load playlists: %w", err)
	}
	for i := range lists {
		lists[i].SongIDs = lo.Uniq(lists[i].SongIDs)
	}
	if lists == nil {
		lists = []Playlist{}
	}
	return &Playlists{store: store, lists: lists}, nil
}

// List returns all playlists in creation order.
func (p *Playlists) List() []Playlist {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return lo.Map(p.lists, func(pl Playlist, _ int) Playlist { return pl.clone() })
}

// Get returns a playlist by its ID.
func (p *Playlists) Get(id string) (Playlist, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx := p.indexOf(id)
	if idx < 0 {
		return Playlist{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p.lists[idx].clone(), nil
}

// Create creates a new empty playlist.
func (p *Playlists) Create(ctx context.Context, name string) (Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Playlist{}, ErrEmptyName
	}
	pl := Playlist{
		ID:      uuid.Must(uuid.NewV7()).String(),
		Name:    name,
		SongIDs: []string{},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	next := append(p.cloneAll(), pl)
	if err := p.save(ctx, next); err != nil {
		return Playlist{}, err
	}
	return pl.clone(), nil
}

// Rename renames a playlist.
func (p *Playlists) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return p.update(ctx, id, func(pl *Playlist) {
		pl.Name = name
	})
}

// Delete deletes a playlist. Its tracks stay in the library.
func (p *Playlists) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := p.cloneAll()
	next = slices.Delete(next, idx, idx+1)
	return p.save(ctx, next)
}

// AddTrack appends trackID to the playlist unless it is already there.
// It reports whether the track was added.
func (p *Playlists) AddTrack(ctx context.Context, id, trackID string) (bool, error) {
	added := false
	err := p.update(ctx, id, func(pl *Playlist) {
		if !pl.Contains(trackID) {
			pl.SongIDs = append(pl.SongIDs, trackID)
			added = true
		}
	})
	return added, err
}

// Toggle adds trackID to the playlist when absent and removes it when
// present. It reports whether the track is now in the playlist.
func (p *Playlists) Toggle(ctx context.Context, id, trackID string) (bool, error) {
	added := false
	err := p.update(ctx, id, func(pl *Playlist) {
		if pl.Contains(trackID) {
			pl.SongIDs = lo.Without(pl.SongIDs, trackID)
			return
		}
		pl.SongIDs = append(pl.SongIDs, trackID)
		added = true
	})
	return added, err
}

// PurgeTrack removes trackID from every playlist and stages the result
// into b. It returns how many playlists changed, and an undo that puts
// trackID back where it was for when b cannot be written.
func (p *Playlists) PurgeTrack(trackID string, b state.Batch) (changed int, undo func(), err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.cloneAll()
	positions := map[string]int{}
	for i := range next {
		if pos := slices.Index(next[i].SongIDs, trackID); pos >= 0 {
			next[i].SongIDs = slices.Delete(next[i].SongIDs, pos, pos+1)
			positions[next[i].ID] = pos
		}
	}
	if err := b.Put(state.KeyPlaylists, next); err != nil {
		return 0, nil, err
	}
	p.lists = next

	undo = func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i := range p.lists {
			pl := &p.lists[i]
			pos, ok := positions[pl.ID]
			if !ok || pl.Contains(trackID) {
				continue
			}
			pl.SongIDs = slices.Insert(pl.SongIDs, min(pos, len(pl.SongIDs)), trackID)
		}
	}
	return len(positions), undo, nil
}

func (p *Playlists) update(ctx context.Context, id string, fn func(pl *Playlist)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := p.cloneAll()
	fn(&next[idx])
	return p.save(ctx, next)
}

// save writes next and makes it current. Must hold p.mu.
func (p *Playlists) save(ctx context.Context, next []Playlist) error {
	if err := state.SaveJSON(ctx, p.store, state.KeyPlaylists, next); err != nil {
		return fmt.Errorf("save playlists: %w", err)
	}
	p.lists = next
	return nil
}

func (p *Playlists) cloneAll() []Playlist {
	return lo.Map(p.lists, func(pl Playlist, _ int) Playlist { return pl.clone() })
}

func (p *Playlists) indexOf(id string) int {
	return slices.IndexFunc(p.lists, func(pl Playlist) bool { return pl.ID == id })
}
