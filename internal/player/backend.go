// internal/player/backend.go
package player

import (
	"github.com/llehouerou/tubeq/internal/playlist"
)

// EventKind identifies a player lifecycle event.
type EventKind int

const (
	EventReady   EventKind = iota // media loaded, waiting for play
	EventPlaying                  // playback started or resumed
	EventPaused                   // playback paused
	EventEnded                    // media reached its end
	EventError                    // media could not be loaded or played
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by a backend when its playback state changes.
type Event struct {
	Kind   EventKind
	Source playlist.SourceKind
	Media  string // media identifier the event refers to
	Err    error  // set for EventError
}

// Backend drives one external player. Commands are asynchronous: their
// outcome is reported later on Events.
type Backend interface {
	Kind() playlist.SourceKind

	// Open creates the player handle bound to media.
	Open(media string) error
	// Load replaces the media of an open handle.
	Load(media string) error
	Play() error
	Pause() error
	// SetVolume sets the level, 0 to 100.
	SetVolume(level int) error
	Mute() error
	Unmute() error
	// Detach stops playback and releases the handle.
	Detach() error

	Events() <-chan Event
}
