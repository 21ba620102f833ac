package player

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/playlist"
)

const (
	fetchTimeout = 30 * time.Second
	eventBuffer  = 32
)

// Decoder turns an encoded audio stream into samples.
type Decoder func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// AudioBackend plays direct audio URLs (preview clips) on the local
// speaker. It implements Backend for SourceAudio tracks.
type AudioBackend struct {
	client *http.Client
	decode Decoder
	out    Output
	logger *zap.Logger
	events chan Event

	// gen identifies the current media. Every Open, Load and Detach bumps
	// it so late fetches and end callbacks of older media are dropped.
	gen atomic.Uint64

	mu       sync.Mutex
	state    State
	media    string
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    int
	muted    bool
}

// AudioOption configures an AudioBackend.
type AudioOption func(*AudioBackend)

// WithHTTPClient sets the client used to fetch media.
func WithHTTPClient(c *http.Client) AudioOption {
	return func(b *AudioBackend) { b.client = c }
}

// WithDecoder replaces the MP3 decoder.
func WithDecoder(d Decoder) AudioOption {
	return func(b *AudioBackend) { b.decode = d }
}

// WithOutput replaces the speaker.
func WithOutput(o Output) AudioOption {
	return func(b *AudioBackend) { b.out = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) AudioOption {
	return func(b *AudioBackend) { b.logger = l }
}

// NewAudioBackend creates a local audio backend.
func NewAudioBackend(opts ...AudioOption) *AudioBackend {
	b := &AudioBackend{
		client: &http.Client{Timeout: fetchTimeout},
		decode: mp3.Decode,
		out:    defaultOutput,
		logger: zap.NewNop(),
		events: make(chan Event, eventBuffer),
		level:  MaxVolume,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *AudioBackend) Kind() playlist.SourceKind { return playlist.SourceAudio }

func (b *AudioBackend) Events() <-chan Event { return b.events }

// Open starts fetching media. EventReady follows once it can play.
func (b *AudioBackend) Open(media string) error {
	return b.Load(media)
}

// Load stops the current media and starts fetching the new one.
func (b *AudioBackend) Load(media string) error {
	b.mu.Lock()
	b.stopLocked()
	gen := b.gen.Add(1)
	b.media = media
	b.mu.Unlock()

	go b.fetch(gen, media)
	return nil
}

func (b *AudioBackend) fetch(gen uint64, media string) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	streamer, format, err := b.open(ctx, media)
	if err != nil {
		if b.gen.Load() == gen {
			b.emit(Event{Kind: EventError, Media: media, Err: err})
		}
		return
	}

	rate, err := b.out.Init(format)
	if err != nil {
		streamer.Close()
		b.emit(Event{Kind: EventError, Media: media, Err: fmt.Errorf("init speaker: %w", err)})
		return
	}

	b.mu.Lock()
	if b.gen.Load() != gen {
		b.mu.Unlock()
		streamer.Close()
		return
	}

	var play beep.Streamer = streamer
	if format.SampleRate != rate {
		play = beep.Resample(4, format.SampleRate, rate, streamer)
	}
	b.streamer = streamer
	b.ctrl = &beep.Ctrl{Streamer: play, Paused: true}
	b.volume = &effects.Volume{
		Streamer: b.ctrl,
		Base:     2,
		Volume:   levelToVolume(b.level),
		Silent:   b.muted,
	}
	b.state = Paused
	b.out.Play(beep.Seq(b.volume, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker locked.
		go b.finished(gen)
	})))
	b.mu.Unlock()

	b.emit(Event{Kind: EventReady, Media: media})
}

func (b *AudioBackend) open(ctx context.Context, media string) (beep.StreamSeekCloser, beep.Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, media, http.NoBody)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("fetch audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, beep.Format{}, fmt.Errorf("fetch audio: unexpected status %d", resp.StatusCode)
	}
	streamer, format, err := b.decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, beep.Format{}, fmt.Errorf("decode audio: %w", err)
	}
	return streamer, format, nil
}

func (b *AudioBackend) finished(gen uint64) {
	b.mu.Lock()
	if b.gen.Load() != gen {
		b.mu.Unlock()
		return
	}
	media := b.media
	b.closeStreamLocked()
	b.mu.Unlock()

	b.emit(Event{Kind: EventEnded, Media: media})
}

func (b *AudioBackend) Play() error {
	b.mu.Lock()
	if !b.state.CanResume() || b.ctrl == nil {
		b.mu.Unlock()
		return nil
	}
	b.out.Lock()
	b.ctrl.Paused = false
	b.out.Unlock()
	b.state = Playing
	media := b.media
	b.mu.Unlock()

	b.emit(Event{Kind: EventPlaying, Media: media})
	return nil
}

func (b *AudioBackend) Pause() error {
	b.mu.Lock()
	if !b.state.CanPause() || b.ctrl == nil {
		b.mu.Unlock()
		return nil
	}
	b.out.Lock()
	b.ctrl.Paused = true
	b.out.Unlock()
	b.state = Paused
	media := b.media
	b.mu.Unlock()

	b.emit(Event{Kind: EventPaused, Media: media})
	return nil
}

func (b *AudioBackend) SetVolume(level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = ClampVolume(level)
	if b.volume != nil {
		b.out.Lock()
		b.volume.Volume = levelToVolume(b.level)
		b.out.Unlock()
	}
	return nil
}

func (b *AudioBackend) Mute() error   { return b.setMuted(true) }
func (b *AudioBackend) Unmute() error { return b.setMuted(false) }

func (b *AudioBackend) setMuted(muted bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.muted = muted
	if b.volume != nil {
		b.out.Lock()
		b.volume.Silent = muted
		b.out.Unlock()
	}
	return nil
}

func (b *AudioBackend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen.Add(1)
	b.stopLocked()
	b.media = ""
	return nil
}

// State returns the local playback state.
func (b *AudioBackend) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *AudioBackend) stopLocked() {
	if b.streamer != nil {
		b.out.Clear()
	}
	b.closeStreamLocked()
}

func (b *AudioBackend) closeStreamLocked() {
	if b.streamer != nil {
		b.streamer.Close()
	}
	b.streamer = nil
	b.ctrl = nil
	b.volume = nil
	b.state = Stopped
}

func (b *AudioBackend) emit(e Event) {
	e.Source = playlist.SourceAudio
	select {
	case b.events <- e:
	default:
		b.logger.Warn("audio event dropped", zap.Stringer("kind", e.Kind), zap.String("media", e.Media))
	}
}

// Verify AudioBackend implements Backend at compile time.
var _ Backend = (*AudioBackend)(nil)
