// internal/player/mock.go
package player

import (
	"fmt"
	"sync"

	"github.com/llehouerou/tubeq/internal/playlist"
)

// Mock is a test double for Backend. It records every command and only
// emits the events a test pushes with Emit.
type Mock struct {
	kind playlist.SourceKind

	mu      sync.Mutex
	calls   []string
	open    bool
	media   string
	level   int
	muted   bool
	openErr error
	events  chan Event
}

// NewMock creates a new mock backend for the given source kind.
func NewMock(kind playlist.SourceKind) *Mock {
	return &Mock{
		kind:   kind,
		level:  -1,
		events: make(chan Event, 16),
	}
}

func (m *Mock) Kind() playlist.SourceKind { return m.kind }

func (m *Mock) Open(media string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "open:"+media)
	if m.openErr != nil {
		return m.openErr
	}
	m.open = true
	m.media = media
	return nil
}

func (m *Mock) Load(media string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "load:"+media)
	if m.openErr != nil {
		return m.openErr
	}
	m.media = media
	return nil
}

func (m *Mock) Play() error  { return m.record("play") }
func (m *Mock) Pause() error { return m.record("pause") }

func (m *Mock) SetVolume(level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("volume:%d", level))
	m.level = level
	return nil
}

func (m *Mock) Mute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "mute")
	m.muted = true
	return nil
}

func (m *Mock) Unmute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "unmute")
	m.muted = false
	return nil
}

func (m *Mock) Detach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "detach")
	m.open = false
	m.media = ""
	return nil
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return nil
}

// Test helpers

// Emit queues an event as if the external player had sent it.
func (m *Mock) Emit(kind EventKind) {
	m.mu.Lock()
	media := m.media
	m.mu.Unlock()
	m.events <- Event{Kind: kind, Source: m.kind, Media: media}
}

// SetOpenError makes Open and Load fail with err.
func (m *Mock) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// Calls returns the recorded commands.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// ResetCalls forgets recorded commands.
func (m *Mock) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *Mock) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Mock) Media() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.media
}

func (m *Mock) Level() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *Mock) IsMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// Verify Mock implements Backend at compile time.
var _ Backend = (*Mock)(nil)
