//nolint:goconst // test files commonly repeat strings for test data
package library

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/llehouerou/tubeq/internal/playlist"
	"github.com/llehouerou/tubeq/internal/state"
)

func newTestLibrary(t *testing.T) (*Library, *state.Mock) {
	t.Helper()
	store := state.NewMock()
	lib, err := Load(context.Background(), store)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return lib, store
}

func song(title string) playlist.Track {
	return playlist.Track{Title: title, URL: "https://www.youtube.com/watch?v=" + title}
}

func TestLoad_Empty(t *testing.T) {
	lib, _ := newTestLibrary(t)

	if lib.Len() != 0 {
		t.Errorf("Len() = %d, want 0", lib.Len())
	}
}

func TestLoad_Existing(t *testing.T) {
	store := state.NewMock()
	store.Set(state.KeyTracks, []byte(`[
		{"id":"1","title":"One","thumbnail":"","url":"https://youtu.be/a"},
		{"id":"2","title":"Two","url":"https://open.spotify.com/track/x","previewUrl":"https://p/x","isExternalSource":true}
	]`))

	lib, err := Load(context.Background(), store)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if lib.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", lib.Len())
	}
	two, err := lib.Get("2")
	if err != nil {
		t.Fatalf("Get(2) failed: %v", err)
	}
	if two.Source != playlist.SourceAudio {
		t.Errorf("Source = %v, want audio", two.Source)
	}
}

func TestLoad_StoreError(t *testing.T) {
	store := state.NewMock()
	store.SetLoadErr(errors.New("unavailable"))

	if _, err := Load(context.Background(), store); err == nil {
		t.Error("Load should fail when the store fails")
	}
}

func TestAdd(t *testing.T) {
	lib, store := newTestLibrary(t)
	ctx := context.Background()

	a, err := lib.Add(ctx, song("a"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	b, err := lib.Add(ctx, song("b"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids = %q, %q, want distinct non-empty", a.ID, b.ID)
	}
	if a.ID >= b.ID {
		t.Errorf("ids should be time ordered: %q >= %q", a.ID, b.ID)
	}

	data, ok := store.Get(state.KeyTracks)
	if !ok {
		t.Fatal("tracks were not saved")
	}
	var saved []playlist.Track
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("saved blob is not JSON: %v", err)
	}
	if len(saved) != 2 || saved[0].Title != "a" || saved[1].Title != "b" {
		t.Errorf("saved = %+v, want [a b]", saved)
	}
}

func TestAdd_Validation(t *testing.T) {
	lib, store := newTestLibrary(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		track playlist.Track
		want  error
	}{
		{"empty title", playlist.Track{Title: "  ", URL: "https://youtu.be/a"}, ErrEmptyTitle},
		{"empty url", playlist.Track{Title: "a"}, ErrEmptyURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := lib.Add(ctx, tt.track); !errors.Is(err, tt.want) {
				t.Errorf("Add() error = %v, want %v", err, tt.want)
			}
		})
	}
	if lib.Len() != 0 || store.Saves() != 0 {
		t.Errorf("rejected adds changed state: len=%d saves=%d", lib.Len(), store.Saves())
	}
}

func TestAdd_SaveFailureLeavesLibraryUnchanged(t *testing.T) {
	lib, store := newTestLibrary(t)
	store.SetSaveErr(errors.New("quota exceeded"))

	if _, err := lib.Add(context.Background(), song("a")); err == nil {
		t.Fatal("Add should fail when saving fails")
	}
	if lib.Len() != 0 {
		t.Errorf("Len() = %d, want 0", lib.Len())
	}
}

func TestGet_NotFound(t *testing.T) {
	lib, _ := newTestLibrary(t)

	if _, err := lib.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	a, _ := lib.Add(ctx, song("a"))
	b, _ := lib.Add(ctx, song("b"))

	batch := state.Batch{}
	removed, _, err := lib.Remove(a.ID, batch)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed.ID != a.ID {
		t.Errorf("removed = %q, want %q", removed.ID, a.ID)
	}

	var staged []playlist.Track
	if err := json.Unmarshal(batch[state.KeyTracks], &staged); err != nil {
		t.Fatalf("staged blob is not JSON: %v", err)
	}
	if len(staged) != 1 || staged[0].ID != b.ID {
		t.Errorf("staged = %+v, want [b]", staged)
	}
	if _, _, err := lib.Remove(a.ID, state.Batch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
}

func TestRemove_Undo(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	a, _ := lib.Add(ctx, song("a"))
	b, _ := lib.Add(ctx, song("b"))
	c, _ := lib.Add(ctx, song("c"))

	_, undo, err := lib.Remove(b.ID, state.Batch{})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if lib.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", lib.Len())
	}

	undo()
	undo()

	got := lib.Tracks()
	want := []string{a.ID, b.ID, c.ID}
	if len(got) != len(want) {
		t.Fatalf("Tracks() len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("Tracks()[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestFilter_KeepsLibraryOrder(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	a, _ := lib.Add(ctx, song("a"))
	lib.Add(ctx, song("b"))
	c, _ := lib.Add(ctx, song("c"))

	keep := map[string]bool{c.ID: true, a.ID: true}
	got := lib.Filter(func(id string) bool { return keep[id] })

	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != c.ID {
		t.Errorf("Filter() = %+v, want [a c]", got)
	}
}
