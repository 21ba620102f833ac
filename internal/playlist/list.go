package playlist

// Entry is a queue slot: a snapshot of a track taken when it was enqueued.
// Key is unique within its queue, so the same track can be queued twice
// and each slot is still tracked on its own.
type Entry struct {
	Key   uint64 `json:"key"`
	Track Track  `json:"track"`
}

// List holds an ordered collection of entries.
type List struct {
	entries []Entry
}

// NewList creates a new empty list.
func NewList() *List {
	return &List{
		entries: make([]Entry, 0),
	}
}

// Add appends entries to the list.
func (l *List) Add(entries ...Entry) {
	l.entries = append(l.entries, entries...)
}

// Remove removes the entry at the given index.
// Returns false if index is out of bounds.
func (l *List) Remove(index int) bool {
	if index < 0 || index >= len(l.entries) {
		return false
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return true
}

// RemoveKey removes the entry with the given key.
// Returns false if no entry has that key.
func (l *List) RemoveKey(key uint64) bool {
	return l.Remove(l.IndexOf(key))
}

// Clear removes all entries from the list.
func (l *List) Clear() {
	l.entries = l.entries[:0]
}

// Set replaces the contents of the list with a copy of entries.
func (l *List) Set(entries []Entry) {
	l.entries = append(l.entries[:0], entries...)
}

// Entries returns a copy of all entries.
func (l *List) Entries() []Entry {
	result := make([]Entry, len(l.entries))
	copy(result, l.entries)
	return result
}

// Entry returns the entry at the given index, or nil if out of bounds.
func (l *List) Entry(index int) *Entry {
	if index < 0 || index >= len(l.entries) {
		return nil
	}
	return &l.entries[index]
}

// IndexOf returns the index of the entry with the given key, or -1.
func (l *List) IndexOf(key uint64) int {
	for i := range l.entries {
		if l.entries[i].Key == key {
			return i
		}
	}
	return -1
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Move moves the entry at fromIndex to toIndex.
// Returns false if either index is out of bounds.
func (l *List) Move(fromIndex, toIndex int) bool {
	if fromIndex < 0 || fromIndex >= len(l.entries) {
		return false
	}
	if toIndex < 0 || toIndex >= len(l.entries) {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	entry := l.entries[fromIndex]
	// Remove from old position
	l.entries = append(l.entries[:fromIndex], l.entries[fromIndex+1:]...)
	// Insert at new position
	l.entries = append(l.entries[:toIndex], append([]Entry{entry}, l.entries[toIndex:]...)...)
	return true
}
