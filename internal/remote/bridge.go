// Package remote hosts the video and audio players in a browser page and
// drives them over a websocket.
package remote

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/player"
	"github.com/llehouerou/tubeq/internal/playlist"
)

const (
	readLimit    = 4096
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 64
	eventsBuffer = 32
)

var errPlayer = errors.New("player error")

var sources = []playlist.SourceKind{playlist.SourceVideo, playlist.SourceAudio}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// playerState is the last commanded state of one browser player, replayed
// when a page connects.
type playerState struct {
	open    bool
	media   string
	playing bool
	level   int
	muted   bool
}

// Bridge owns the connection to the player page. Only one page is driven
// at a time; a newer connection replaces the older one.
type Bridge struct {
	logger   *zap.Logger
	backends map[playlist.SourceKind]*Backend

	mu      sync.Mutex
	client  *client
	players map[playlist.SourceKind]*playerState
}

// NewBridge creates a bridge with one backend per source kind.
func NewBridge(logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		logger:   logger,
		backends: make(map[playlist.SourceKind]*Backend),
		players:  make(map[playlist.SourceKind]*playerState),
	}
	for _, kind := range sources {
		b.backends[kind] = &Backend{
			bridge: b,
			kind:   kind,
			events: make(chan player.Event, eventsBuffer),
		}
		b.players[kind] = &playerState{level: player.MaxVolume}
	}
	return b
}

// Backend returns the backend for kind.
func (b *Bridge) Backend(kind playlist.SourceKind) *Backend {
	return b.backends[kind]
}

// Connected reports whether a player page is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil
}

// ServeHTTP upgrades the request and attaches the page.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	old := b.client
	b.client = c
	for _, kind := range sources {
		for _, msg := range b.players[kind].replay(kind) {
			b.enqueueLocked(msg)
		}
	}
	b.mu.Unlock()

	if old != nil {
		old.close()
		b.logger.Info("player page replaced", zap.String("remote", r.RemoteAddr))
	} else {
		b.logger.Info("player page connected", zap.String("remote", r.RemoteAddr))
	}

	go c.writePump()
	b.readPump(c)
}

// Close disconnects the current page.
func (b *Bridge) Close() {
	b.mu.Lock()
	c := b.client
	b.client = nil
	b.mu.Unlock()
	if c != nil {
		c.close()
	}
}

func (b *Bridge) readPump(c *client) {
	defer func() {
		b.mu.Lock()
		if b.client == c {
			b.client = nil
		}
		b.mu.Unlock()
		c.close()
		b.logger.Info("player page disconnected")
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				b.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Warn("invalid player message", zap.Error(err))
			continue
		}
		b.handle(msg)
	}
}

func (b *Bridge) handle(msg Message) {
	kind, ok := msg.Type.eventKind()
	if !ok {
		b.logger.Warn("unknown player message", zap.String("type", string(msg.Type)))
		return
	}
	be, ok := b.backends[msg.Source]
	if !ok {
		return
	}

	b.mu.Lock()
	p := b.players[msg.Source]
	switch kind {
	case player.EventPlaying:
		p.playing = true
	case player.EventPaused, player.EventEnded, player.EventError:
		p.playing = false
	}
	b.mu.Unlock()

	e := player.Event{Kind: kind, Source: msg.Source, Media: msg.Media}
	if kind == player.EventError {
		e.Err = errPlayer
		if msg.Error != "" {
			e.Err = errors.New(msg.Error)
		}
	}
	select {
	case be.events <- e:
	default:
		b.logger.Warn("player event dropped", zap.Stringer("kind", kind))
	}
}

// command records msg in the replay state and sends it to the page, if any.
func (b *Bridge) command(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.players[msg.Source].apply(msg)
	b.enqueueLocked(msg)
}

func (b *Bridge) enqueueLocked(msg Message) {
	if b.client == nil {
		return
	}
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("encode player message", zap.Error(err))
		return
	}
	select {
	case b.client.send <- data:
	default:
		b.logger.Warn("player command dropped", zap.String("type", string(msg.Type)))
	}
}

func (p *playerState) apply(msg Message) {
	switch msg.Type {
	case MsgOpen, MsgLoad:
		p.open = true
		p.media = msg.Media
		p.playing = false
	case MsgPlay:
		p.playing = true
	case MsgPause:
		p.playing = false
	case MsgVolume:
		p.level = msg.Level
	case MsgMute:
		p.muted = true
	case MsgUnmute:
		p.muted = false
	case MsgDetach:
		p.open = false
		p.media = ""
		p.playing = false
	}
}

// replay returns the commands that rebuild this player on a fresh page.
func (p *playerState) replay(kind playlist.SourceKind) []Message {
	if !p.open {
		return nil
	}
	msgs := []Message{
		{Type: MsgOpen, Source: kind, Media: p.media},
		{Type: MsgVolume, Source: kind, Level: p.level},
	}
	if p.muted {
		msgs = append(msgs, Message{Type: MsgMute, Source: kind})
	}
	if p.playing {
		msgs = append(msgs, Message{Type: MsgPlay, Source: kind})
	}
	return msgs
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
