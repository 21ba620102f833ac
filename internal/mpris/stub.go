//go:build !linux

package mpris

import "github.com/llehouerou/tubeq/internal/playback"

// Player does nothing outside Linux.
type Player struct{}

// New returns an inert Player; MPRIS needs a D-Bus session.
func New(playback.Service) (*Player, error) {
	return &Player{}, nil
}

// Close does nothing.
func (*Player) Close() error {
	return nil
}
