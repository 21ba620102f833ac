// Package notify posts a desktop notification whenever the current track
// changes.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/playback"
	"github.com/llehouerou/tubeq/internal/playlist"
)

const (
	appName        = "tubeq"
	nowPlayingIcon = "media-playback-start"
)

// Notification is one desktop notification.
type Notification struct {
	Summary   string
	Body      string
	Icon      string
	TimeoutMS int32  // -1 lets the server decide
	Replaces  uint32 // ID to update in place, 0 for a new notification
}

// Notifier posts notifications and returns the ID the server assigned.
type Notifier interface {
	Notify(n Notification) (uint32, error)
}

// Discard is a Notifier that drops everything.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notification) (uint32, error) { return 0, nil }

// NowPlaying posts the current track on every track change, updating the
// previous notification in place. It returns when sub closes or ctx ends.
func NowPlaying(ctx context.Context, n Notifier, sub *playback.Subscription, timeoutMS int32, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var shown uint32
	for {
		select {
		case e := <-sub.TrackChanged:
			if e.Current == nil {
				continue
			}
			id, err := n.Notify(nowPlaying(e.Current, timeoutMS, shown))
			if err != nil {
				logger.Debug("now playing notification", zap.Error(err))
				continue
			}
			shown = id
		case <-sub.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func nowPlaying(t *playlist.Track, timeoutMS int32, replaces uint32) Notification {
	return Notification{
		Summary:   t.Title,
		Body:      "Now playing",
		Icon:      nowPlayingIcon,
		TimeoutMS: timeoutMS,
		Replaces:  replaces,
	}
}
