// Package errmsg turns failed operations into the one-line messages shown
// by the web page and the CLI.
package errmsg

import "fmt"

// Op names a user action, phrased to follow "Failed to".
type Op string

const (
	OpSongAdd    Op = "add song"
	OpSongAccept Op = "add search result"
	OpSongDelete Op = "delete song"
	OpSearch     Op = "search"

	OpPlaylistCreate Op = "create playlist"
	OpPlaylistRename Op = "rename playlist"
	OpPlaylistDelete Op = "delete playlist"
	OpPlaylistToggle Op = "update playlist"
	OpPlaylistLoad   Op = "load playlist"

	OpQueueAdd     Op = "add to queue"
	OpQueueRemove  Op = "remove from queue"
	OpQueueSeek    Op = "jump to track"
	OpQueueReorder Op = "reorder queue"
	OpPlayNow      Op = "play song"
	OpPlayAll      Op = "play all"

	OpPlaybackToggle Op = "toggle playback"
	OpVolume         Op = "set volume"
)

// Format returns "Failed to <op>: <err>", or "" for a nil error.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatOn is Format naming what the operation was applied to, such as a
// URL or a playlist name. An empty subject is left out.
func FormatOn(op Op, subject string, err error) string {
	if err == nil {
		return ""
	}
	if subject == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s %q: %v", op, subject, err)
}
