package playback

import (
	"context"
	"errors"

	"github.com/llehouerou/tubeq/internal/player"
	"github.com/llehouerou/tubeq/internal/playlist"
)

var (
	// ErrEmptyQueue is returned when play is requested with nothing queued.
	ErrEmptyQueue = errors.New("queue is empty")
	// ErrNoBackend is returned when no backend plays a track's source kind.
	ErrNoBackend = errors.New("no backend for source")
	// ErrUnresolvable is returned when a track has no playable identifier.
	ErrUnresolvable = errors.New("track cannot be resolved")
)

// Snapshot is a consistent view of the controller and its queue.
type Snapshot struct {
	State    State            `json:"state"`
	Entries  []playlist.Entry `json:"entries"`
	Index    int              `json:"index"`
	Current  *playlist.Track  `json:"current,omitempty"`
	Shuffled bool             `json:"shuffled"`
	Volume   int              `json:"volume"`
	Muted    bool             `json:"muted"`
}

// Service defines the playback service contract.
type Service interface {
	// Queue manipulation (starts, reloads or stops playback as needed)
	Enqueue(tracks ...playlist.Track)
	Replace(tracks ...playlist.Track)
	RemoveAt(index int) error
	RemoveTrack(id string)
	ClearQueue()

	// Queue navigation
	JumpTo(index int) error
	Next()
	Previous()

	// Queue ordering (never interrupts playback)
	Reorder(keys []uint64) error
	Move(fromIndex, toIndex int) error
	ToggleShuffle() bool

	// Playback control
	Play() error
	Pause() error
	Toggle() error
	SetVolume(level int)
	ToggleMute() bool

	// Player events
	HandleEvent(e player.Event)
	Run(ctx context.Context) error

	// State queries
	State() State
	Volume() int
	Muted() bool
	CurrentTrack() *playlist.Track
	Snapshot() Snapshot

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
