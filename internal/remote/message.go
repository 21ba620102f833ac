package remote

import (
	"github.com/llehouerou/tubeq/internal/player"
	"github.com/llehouerou/tubeq/internal/playlist"
)

// MessageType identifies a websocket message.
type MessageType string

const (
	// Commands, server to browser.
	MsgOpen   MessageType = "open"
	MsgLoad   MessageType = "load"
	MsgPlay   MessageType = "play"
	MsgPause  MessageType = "pause"
	MsgVolume MessageType = "volume"
	MsgMute   MessageType = "mute"
	MsgUnmute MessageType = "unmute"
	MsgDetach MessageType = "detach"

	// Events, browser to server.
	MsgReady   MessageType = "ready"
	MsgPlaying MessageType = "playing"
	MsgPaused  MessageType = "paused"
	MsgEnded   MessageType = "ended"
	MsgError   MessageType = "error"
)

// Message is a single JSON text frame.
type Message struct {
	Type      MessageType         `json:"type"`
	Source    playlist.SourceKind `json:"source"`
	Media     string              `json:"media,omitempty"`
	Level     int                 `json:"level,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

// eventKind maps a browser message to a player event.
func (t MessageType) eventKind() (player.EventKind, bool) {
	switch t {
	case MsgReady:
		return player.EventReady, true
	case MsgPlaying:
		return player.EventPlaying, true
	case MsgPaused:
		return player.EventPaused, true
	case MsgEnded:
		return player.EventEnded, true
	case MsgError:
		return player.EventError, true
	default:
		return 0, false
	}
}
