package playlist

import (
	"errors"
	"math/rand/v2"
)

var (
	// ErrInvalidIndex is returned when a queue index is out of range.
	ErrInvalidIndex = errors.New("queue index out of range")
	// ErrInvalidOrder is returned when a reorder is not a permutation of the queue.
	ErrInvalidOrder = errors.New("order is not a permutation of the queue")
)

// Signal tells the playback controller what a queue mutation requires.
type Signal int

const (
	SignalNone        Signal = iota // nothing to do
	SignalStart                     // queue went from empty to playable
	SignalLoadCurrent               // the current entry changed
	SignalStop                      // nothing left to play
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "None"
	case SignalStart:
		return "Start"
	case SignalLoadCurrent:
		return "LoadCurrent"
	case SignalStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// Merge returns the stronger of two signals, used when one operation
// performs several removals.
func (s Signal) Merge(other Signal) Signal {
	if other > s {
		return other
	}
	return s
}

// PlayingQueue wraps a List with a playback cursor and shuffle state.
//
// The cursor is -1 exactly when the queue is empty; otherwise it is a valid
// index. Every mutator restores this before returning.
type PlayingQueue struct {
	list         *List
	currentIndex int // -1 if nothing playing
	nextKey      uint64

	shuffled bool
	original *List // order before shuffling, nil unless shuffled
	shuffle  func(n int, swap func(i, j int))
}

// Option configures a PlayingQueue.
type Option func(*PlayingQueue)

// WithRand makes shuffling draw from r instead of the global source.
func WithRand(r *rand.Rand) Option {
	return func(q *PlayingQueue) {
		q.shuffle = r.Shuffle
	}
}

// NewQueue creates a new empty playing queue.
func NewQueue(opts ...Option) *PlayingQueue {
	q := &PlayingQueue{
		list:         NewList(),
		currentIndex: -1,
		shuffle:      rand.Shuffle,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Current returns the currently playing track, or nil if none.
func (q *PlayingQueue) Current() *Track {
	e := q.CurrentEntry()
	if e == nil {
		return nil
	}
	return &e.Track
}

// CurrentEntry returns the current queue entry, or nil if none.
func (q *PlayingQueue) CurrentEntry() *Entry {
	return q.list.Entry(q.currentIndex)
}

// CurrentIndex returns the index of the currently playing track (-1 if none).
func (q *PlayingQueue) CurrentIndex() int {
	return q.currentIndex
}

// HasNext returns true if there's a track after the current one.
func (q *PlayingQueue) HasNext() bool {
	return q.currentIndex >= 0 && q.currentIndex < q.list.Len()-1
}

// HasPrevious returns true if there's a track before the current one.
func (q *PlayingQueue) HasPrevious() bool {
	return q.currentIndex > 0
}

// Next advances to the next track. At the last entry it does nothing.
func (q *PlayingQueue) Next() Signal {
	if !q.HasNext() {
		return SignalNone
	}
	q.currentIndex++
	return SignalLoadCurrent
}

// Previous steps back one track. At the first entry it does nothing.
func (q *PlayingQueue) Previous() Signal {
	if !q.HasPrevious() {
		return SignalNone
	}
	q.currentIndex--
	return SignalLoadCurrent
}

// JumpTo sets the current index to the specified position.
func (q *PlayingQueue) JumpTo(index int) (Signal, error) {
	if index < 0 || index >= q.list.Len() {
		return SignalNone, ErrInvalidIndex
	}
	q.currentIndex = index
	return SignalLoadCurrent, nil
}

// Enqueue appends tracks. If the queue was empty the first new track
// becomes current and playback should start.
func (q *PlayingQueue) Enqueue(tracks ...Track) Signal {
	if len(tracks) == 0 {
		return SignalNone
	}
	entries := q.newEntries(tracks)
	q.list.Add(entries...)
	if q.shuffled {
		q.original.Add(entries...)
	}
	if q.currentIndex == -1 {
		q.currentIndex = 0
		return SignalStart
	}
	return SignalNone
}

// Replace clears the queue, adds tracks, and sets index to 0.
// Shuffle state is dropped along with the old contents.
func (q *PlayingQueue) Replace(tracks ...Track) Signal {
	q.list.Clear()
	q.currentIndex = -1
	q.resetShuffle()
	if len(tracks) == 0 {
		return SignalStop
	}
	q.list.Add(q.newEntries(tracks)...)
	q.currentIndex = 0
	return SignalStart
}

// RemoveAt removes the entry at the given index and keeps the cursor on
// the same logical track.
//
// Removing the current entry makes its successor current (SignalLoadCurrent).
// If it was the last entry, the cursor falls back onto the new last entry
// and playback stops.
func (q *PlayingQueue) RemoveAt(index int) (Signal, error) {
	e := q.list.Entry(index)
	if e == nil {
		return SignalNone, ErrInvalidIndex
	}
	key := e.Key
	q.list.Remove(index)
	if q.shuffled {
		q.original.RemoveKey(key)
	}

	switch {
	case q.list.Len() == 0:
		q.currentIndex = -1
		q.resetShuffle()
		return SignalStop, nil
	case index < q.currentIndex:
		q.currentIndex--
	case index == q.currentIndex:
		if q.currentIndex < q.list.Len() {
			return SignalLoadCurrent, nil
		}
		q.currentIndex = q.list.Len() - 1
		return SignalStop, nil
	}
	return SignalNone, nil
}

// RemoveTrack removes every entry holding the track with the given ID.
func (q *PlayingQueue) RemoveTrack(id string) Signal {
	sig := SignalNone
	for i := q.list.Len() - 1; i >= 0; i-- {
		if q.list.Entry(i).Track.ID != id {
			continue
		}
		s, _ := q.RemoveAt(i)
		sig = sig.Merge(s)
	}
	return sig
}

// Reorder rearranges the queue to match keys, which must name every entry
// exactly once. The current entry stays current wherever it lands.
func (q *PlayingQueue) Reorder(keys []uint64) error {
	if len(keys) != q.list.Len() {
		return ErrInvalidOrder
	}
	byKey := make(map[uint64]Entry, len(keys))
	for _, e := range q.list.Entries() {
		byKey[e.Key] = e
	}
	reordered := make([]Entry, 0, len(keys))
	for _, k := range keys {
		e, ok := byKey[k]
		if !ok {
			return ErrInvalidOrder
		}
		delete(byKey, k)
		reordered = append(reordered, e)
	}

	current := q.CurrentEntry()
	if current == nil {
		q.list.Set(reordered)
		return nil
	}
	key := current.Key
	q.list.Set(reordered)
	q.currentIndex = q.list.IndexOf(key)
	return nil
}

// Move moves the entry at fromIndex to toIndex (drag and drop).
func (q *PlayingQueue) Move(fromIndex, toIndex int) error {
	current := q.CurrentEntry()
	var key uint64
	if current != nil {
		key = current.Key
	}
	if !q.list.Move(fromIndex, toIndex) {
		return ErrInvalidIndex
	}
	if current != nil {
		q.currentIndex = q.list.IndexOf(key)
	}
	return nil
}

// ToggleShuffle switches between original and shuffled order and returns
// the new shuffle state. An empty queue is left untouched.
//
// Shuffling keeps the current entry first and permutes the rest.
// Unshuffling restores the saved order and finds the current entry again
// by identity, since the queue may have been edited in between.
func (q *PlayingQueue) ToggleShuffle() bool {
	if q.list.Len() == 0 {
		return q.shuffled
	}
	if q.shuffled {
		q.unshuffle()
	} else {
		q.shuffleEntries()
	}
	return q.shuffled
}

func (q *PlayingQueue) shuffleEntries() {
	entries := q.list.Entries()
	q.original = NewList()
	q.original.Set(entries)

	current := q.CurrentEntry()
	if current != nil {
		saved := *current
		current = &saved
	}
	rest := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if i != q.currentIndex {
			rest = append(rest, e)
		}
	}
	q.shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	if current != nil {
		q.list.Set(append([]Entry{*current}, rest...))
		q.currentIndex = 0
	} else {
		q.list.Set(rest)
		q.currentIndex = -1
	}
	q.shuffled = true
}

func (q *PlayingQueue) unshuffle() {
	var current *Entry
	if e := q.CurrentEntry(); e != nil {
		saved := *e
		current = &saved
	}
	q.list.Set(q.original.Entries())
	q.resetShuffle()

	q.currentIndex = -1
	if current != nil {
		q.currentIndex = q.list.IndexOf(current.Key)
		if q.currentIndex < 0 {
			q.currentIndex = q.indexOfTrack(current.Track.ID)
		}
	}
	if q.currentIndex < 0 && q.list.Len() > 0 {
		q.currentIndex = 0
	}
}

func (q *PlayingQueue) indexOfTrack(id string) int {
	for i, e := range q.list.entries {
		if e.Track.ID == id {
			return i
		}
	}
	return -1
}

// Shuffled reports whether the queue is in shuffled order.
func (q *PlayingQueue) Shuffled() bool {
	return q.shuffled
}

// Clear removes all tracks and resets playback and shuffle state.
func (q *PlayingQueue) Clear() Signal {
	q.list.Clear()
	q.currentIndex = -1
	q.resetShuffle()
	return SignalStop
}

// Entries returns all entries in the queue.
func (q *PlayingQueue) Entries() []Entry {
	return q.list.Entries()
}

// Tracks returns all tracks in the queue.
func (q *PlayingQueue) Tracks() []Track {
	entries := q.list.Entries()
	tracks := make([]Track, len(entries))
	for i, e := range entries {
		tracks[i] = e.Track
	}
	return tracks
}

// Len returns the number of tracks in the queue.
func (q *PlayingQueue) Len() int {
	return q.list.Len()
}

// IsEmpty returns true if the queue has no tracks.
func (q *PlayingQueue) IsEmpty() bool {
	return q.list.Len() == 0
}

func (q *PlayingQueue) resetShuffle() {
	q.shuffled = false
	q.original = nil
}

func (q *PlayingQueue) newEntries(tracks []Track) []Entry {
	entries := make([]Entry, len(tracks))
	for i, t := range tracks {
		q.nextKey++
		entries[i] = Entry{Key: q.nextKey, Track: t}
	}
	return entries
}
