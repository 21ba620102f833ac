//nolint:goconst // test files commonly repeat strings for test data
package playlists

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tubeq/internal/state"
)

func newTestPlaylists(t *testing.T) (*Playlists, *state.Mock) {
	t.Helper()
	store := state.NewMock()
	p, err := Load(context.Background(), store)
	require.NoError(t, err)
	return p, store
}

func savedPlaylists(t *testing.T, store *state.Mock) []Playlist {
	t.Helper()
	data, ok := store.Get(state.KeyPlaylists)
	require.True(t, ok, "playlists were not saved")
	var lists []Playlist
	require.NoError(t, json.Unmarshal(data, &lists))
	return lists
}

func TestCreate(t *testing.T) {
	p, store := newTestPlaylists(t)

	pl, err := p.Create(context.Background(), "  Road trip ")
	require.NoError(t, err)

	assert.NotEmpty(t, pl.ID)
	assert.Equal(t, "Road trip", pl.Name)
	assert.Empty(t, pl.SongIDs)
	assert.Len(t, savedPlaylists(t, store), 1)
}

func TestCreate_EmptyName(t *testing.T) {
	p, store := newTestPlaylists(t)

	_, err := p.Create(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrEmptyName)
	assert.Empty(t, p.List())
	assert.Zero(t, store.Saves())
}

func TestRename(t *testing.T) {
	p, _ := newTestPlaylists(t)
	ctx := context.Background()
	pl, err := p.Create(ctx, "Old")
	require.NoError(t, err)

	require.NoError(t, p.Rename(ctx, pl.ID, "New"))

	got, err := p.Get(pl.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)

	assert.ErrorIs(t, p.Rename(ctx, pl.ID, ""), ErrEmptyName)
	assert.ErrorIs(t, p.Rename(ctx, "missing", "x"), ErrNotFound)
}

func TestDelete(t *testing.T) {
	p, store := newTestPlaylists(t)
	ctx := context.Background()
	a, _ := p.Create(ctx, "A")
	b, _ := p.Create(ctx, "B")

	require.NoError(t, p.Delete(ctx, a.ID))

	lists := p.List()
	require.Len(t, lists, 1)
	assert.Equal(t, b.ID, lists[0].ID)
	assert.Len(t, savedPlaylists(t, store), 1)
	assert.ErrorIs(t, p.Delete(ctx, a.ID), ErrNotFound)
}

func TestAddTrack_SetSemantics(t *testing.T) {
	p, _ := newTestPlaylists(t)
	ctx := context.Background()
	pl, _ := p.Create(ctx, "A")

	added, err := p.AddTrack(ctx, pl.ID, "t1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = p.AddTrack(ctx, pl.ID, "t1")
	require.NoError(t, err)
	assert.False(t, added)

	got, _ := p.Get(pl.ID)
	assert.Equal(t, []string{"t1"}, got.SongIDs)
}

func TestToggle(t *testing.T) {
	p, _ := newTestPlaylists(t)
	ctx := context.Background()
	pl, _ := p.Create(ctx, "A")

	in, err := p.Toggle(ctx, pl.ID, "t1")
	require.NoError(t, err)
	assert.True(t, in)

	in, err = p.Toggle(ctx, pl.ID, "t1")
	require.NoError(t, err)
	assert.False(t, in)

	got, _ := p.Get(pl.ID)
	assert.Empty(t, got.SongIDs)

	_, err = p.Toggle(ctx, "missing", "t1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveFailureLeavesPlaylistsUnchanged(t *testing.T) {
	p, store := newTestPlaylists(t)
	ctx := context.Background()
	pl, _ := p.Create(ctx, "A")
	store.SetSaveErr(errors.New("quota exceeded"))

	_, err := p.Toggle(ctx, pl.ID, "t1")
	require.Error(t, err)

	got, _ := p.Get(pl.ID)
	assert.Empty(t, got.SongIDs)
}

func TestPurgeTrack(t *testing.T) {
	p, _ := newTestPlaylists(t)
	ctx := context.Background()
	a, _ := p.Create(ctx, "A")
	b, _ := p.Create(ctx, "B")
	c, _ := p.Create(ctx, "C")
	p.AddTrack(ctx, a.ID, "x")
	p.AddTrack(ctx, a.ID, "y")
	p.AddTrack(ctx, b.ID, "x")
	p.AddTrack(ctx, c.ID, "y")

	batch := state.Batch{}
	changed, _, err := p.PurgeTrack("x", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	for _, pl := range p.List() {
		assert.False(t, pl.Contains("x"), "playlist %s still holds x", pl.Name)
	}
	var staged []Playlist
	require.NoError(t, json.Unmarshal(batch[state.KeyPlaylists], &staged))
	assert.Equal(t, []string{"y"}, staged[0].SongIDs)
	assert.Empty(t, staged[1].SongIDs)
}

func TestPurgeTrack_Undo(t *testing.T) {
	p, store := newTestPlaylists(t)
	ctx := context.Background()
	a, _ := p.Create(ctx, "A")
	b, _ := p.Create(ctx, "B")
	p.AddTrack(ctx, a.ID, "w")
	p.AddTrack(ctx, a.ID, "x")
	p.AddTrack(ctx, a.ID, "y")
	p.AddTrack(ctx, b.ID, "y")
	saves := store.Saves()

	_, undo, err := p.PurgeTrack("x", state.Batch{})
	require.NoError(t, err)
	undo()

	got, _ := p.Get(a.ID)
	assert.Equal(t, []string{"w", "x", "y"}, got.SongIDs)
	got, _ = p.Get(b.ID)
	assert.Equal(t, []string{"y"}, got.SongIDs)
	assert.Equal(t, saves, store.Saves(), "undo touches memory only")
}

func TestLoad_DedupesSongIDs(t *testing.T) {
	store := state.NewMock()
	store.Set(state.KeyPlaylists, []byte(`[{"id":"1","name":"A","songIds":["a","b","a"]}]`))

	p, err := Load(context.Background(), store)
	require.NoError(t, err)

	got, err := p.Get("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.SongIDs)
}

func TestList_ReturnsCopies(t *testing.T) {
	p, _ := newTestPlaylists(t)
	ctx := context.Background()
	pl, _ := p.Create(ctx, "A")
	p.AddTrack(ctx, pl.ID, "t1")

	lists := p.List()
	lists[0].SongIDs[0] = "mutated"

	got, _ := p.Get(pl.ID)
	assert.Equal(t, []string{"t1"}, got.SongIDs)
}
