package playback

import "github.com/llehouerou/tubeq/internal/playlist"

// StateChange is emitted when playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when a queue entry is handed to a backend.
//
// Emitted by every successful load: queue start, Next/Previous/JumpTo,
// removal of the current entry, and automatic advance at end of media.
// Entries skipped because they could not be resolved do not emit it.
type TrackChange struct {
	Previous      *playlist.Track
	Current       *playlist.Track
	PreviousIndex int
	Index         int
}

// QueueChange is emitted when the queue contents or cursor change.
type QueueChange struct {
	Entries []playlist.Entry
	Index   int
}

// ModeChange is emitted when shuffle is toggled.
type ModeChange struct {
	Shuffle bool
}

// VolumeChange is emitted when the volume level or mute state changes.
type VolumeChange struct {
	Level int
	Muted bool
}

// ErrorEvent is emitted when an error occurs during playback.
type ErrorEvent struct {
	Operation string // e.g., "load", "play"
	TrackID   string // track ID if applicable
	Err       error
}
