//go:build linux

// Package mpris exposes the playback service on the session bus so media
// keys and desktop applets can drive it.
package mpris

import (
	"fmt"
	"hash/fnv"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/tubeq/internal/playback"
	"github.com/llehouerou/tubeq/internal/player"
)

const busName = "tubeq"

// Player is the MPRIS2 media player object for one playback service.
type Player struct {
	srv *server.Server
}

// New publishes service on the session bus. Listen runs in the
// background; a missing bus only means media keys do nothing.
func New(service playback.Service) (*Player, error) {
	p := &Player{
		srv: server.NewServer(busName, identity{}, &controls{svc: service}),
	}
	go func() { _ = p.srv.Listen() }()
	return p, nil
}

// Close releases the bus name.
func (p *Player) Close() error {
	return p.srv.Stop()
}

// identity answers the org.mpris.MediaPlayer2 root interface.
type identity struct{}

func (identity) Raise() error                          { return nil }
func (identity) Quit() error                           { return nil }
func (identity) CanQuit() (bool, error)                { return false, nil }
func (identity) CanRaise() (bool, error)               { return false, nil }
func (identity) HasTrackList() (bool, error)           { return false, nil }
func (identity) Identity() (string, error)             { return busName, nil }
func (identity) SupportedMimeTypes() ([]string, error) { return nil, nil }

//nolint:revive // name fixed by the adapter interface
func (identity) SupportedUriSchemes() ([]string, error) { return nil, nil }

// controls answers org.mpris.MediaPlayer2.Player plus the shuffle property.
type controls struct {
	svc playback.Service
}

func (c *controls) Next() error {
	c.svc.Next()
	return nil
}

func (c *controls) Previous() error {
	c.svc.Previous()
	return nil
}

func (c *controls) Play() error      { return c.svc.Play() }
func (c *controls) Pause() error     { return c.svc.Pause() }
func (c *controls) PlayPause() error { return c.svc.Toggle() }

// Stop pauses; the queue and its cursor are kept.
func (c *controls) Stop() error { return c.svc.Pause() }

// Positions live in the player page, so seeking and rates are fixed.
func (c *controls) Seek(types.Microseconds) error                { return nil }
func (c *controls) SetPosition(string, types.Microseconds) error { return nil }
func (c *controls) Position() (int64, error)                     { return 0, nil }
func (c *controls) Rate() (float64, error)                       { return 1, nil }
func (c *controls) SetRate(float64) error                        { return nil }
func (c *controls) MinimumRate() (float64, error)                { return 1, nil }
func (c *controls) MaximumRate() (float64, error)                { return 1, nil }
func (c *controls) CanSeek() (bool, error)                       { return false, nil }
func (c *controls) CanControl() (bool, error)                    { return true, nil }

//nolint:revive // name fixed by the adapter interface
func (c *controls) OpenUri(string) error { return nil }

func (c *controls) PlaybackStatus() (types.PlaybackStatus, error) {
	switch c.svc.State() {
	case playback.StateLoading, playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (c *controls) Metadata() (types.Metadata, error) {
	t := c.svc.CurrentTrack()
	if t == nil {
		return types.Metadata{}, nil
	}
	return types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(t.ID)),
		Title:   t.Title,
		ArtUrl:  t.Thumbnail,
	}, nil
}

// Volume is 0..1 on the bus; muted reads as silent.
func (c *controls) Volume() (float64, error) {
	if c.svc.Muted() {
		return 0, nil
	}
	return float64(c.svc.Volume()) / player.MaxVolume, nil
}

func (c *controls) SetVolume(v float64) error {
	c.svc.SetVolume(int(v*player.MaxVolume + 0.5))
	return nil
}

func (c *controls) CanGoNext() (bool, error) {
	snap := c.svc.Snapshot()
	return snap.Index >= 0 && snap.Index < len(snap.Entries)-1, nil
}

func (c *controls) CanGoPrevious() (bool, error) {
	return c.svc.Snapshot().Index > 0, nil
}

func (c *controls) CanPause() (bool, error) {
	return c.svc.State().IsActive(), nil
}

func (c *controls) CanPlay() (bool, error) {
	return len(c.svc.Snapshot().Entries) > 0, nil
}

func (c *controls) Shuffle() (bool, error) {
	return c.svc.Snapshot().Shuffled, nil
}

func (c *controls) SetShuffle(on bool) error {
	if c.svc.Snapshot().Shuffled != on {
		c.svc.ToggleShuffle()
	}
	return nil
}

// formatTrackID maps a track ID onto a valid D-Bus object path.
func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
