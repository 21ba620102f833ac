package remote

import (
	"github.com/llehouerou/tubeq/internal/player"
	"github.com/llehouerou/tubeq/internal/playlist"
)

// Backend is one browser-hosted player. Commands never fail: while no page
// is connected they only update the state replayed on connect.
type Backend struct {
	bridge *Bridge
	kind   playlist.SourceKind
	events chan player.Event
}

func (b *Backend) Kind() playlist.SourceKind { return b.kind }

func (b *Backend) Events() <-chan player.Event { return b.events }

func (b *Backend) Open(media string) error {
	return b.send(Message{Type: MsgOpen, Media: media})
}

func (b *Backend) Load(media string) error {
	return b.send(Message{Type: MsgLoad, Media: media})
}

func (b *Backend) Play() error  { return b.send(Message{Type: MsgPlay}) }
func (b *Backend) Pause() error { return b.send(Message{Type: MsgPause}) }

func (b *Backend) SetVolume(level int) error {
	return b.send(Message{Type: MsgVolume, Level: player.ClampVolume(level)})
}

func (b *Backend) Mute() error   { return b.send(Message{Type: MsgMute}) }
func (b *Backend) Unmute() error { return b.send(Message{Type: MsgUnmute}) }
func (b *Backend) Detach() error { return b.send(Message{Type: MsgDetach}) }

func (b *Backend) send(msg Message) error {
	msg.Source = b.kind
	b.bridge.command(msg)
	return nil
}

// Verify Backend implements player.Backend at compile time.
var _ player.Backend = (*Backend)(nil)
