// Package history keeps the list of recently played tracks.
package history

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/playback"
	"github.com/llehouerou/tubeq/internal/playlist"
	"github.com/llehouerou/tubeq/internal/state"
)

// MaxEntries is the number of plays kept.
const MaxEntries = 200

// Entry is one play.
type Entry struct {
	TrackID  string    `json:"trackId"`
	Title    string    `json:"title"`
	PlayedAt time.Time `json:"playedAt"`
}

// History is the play log, newest first.
type History struct {
	store state.Store

	mu      sync.RWMutex
	entries []Entry
}

// Load reads the saved history. A missing blob yields an empty history.
func Load(ctx context.Context, store state.Store) (*History, error) {
	var entries []Entry
	if _, err := state.LoadJSON(ctx, store, state.KeyHistory, &entries); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return &History{store: store, entries: entries}, nil
}

// Entries returns a copy of the log, newest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.entries)
}

// Record logs a play of t at the given time and saves the log.
func (h *History) Record(ctx context.Context, t playlist.Track, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]Entry, 0, min(len(h.entries)+1, MaxEntries))
	next = append(next, Entry{TrackID: t.ID, Title: t.Title, PlayedAt: at.UTC()})
	next = append(next, h.entries[:min(len(h.entries), MaxEntries-1)]...)

	if err := state.SaveJSON(ctx, h.store, state.KeyHistory, next); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	h.entries = next
	return nil
}

// Follow records every track the playback service loads until ctx is done
// or the subscription closes. Save failures are logged.
func (h *History) Follow(ctx context.Context, sub *playback.Subscription, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for {
		select {
		case e := <-sub.TrackChanged:
			if e.Current == nil {
				continue
			}
			if err := h.Record(ctx, *e.Current, time.Now()); err != nil {
				logger.Error("record play", zap.String("track", e.Current.ID), zap.Error(err))
			}
		case <-sub.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}
