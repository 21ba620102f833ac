// internal/playback/service_impl.go
package playback

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/player"
	"github.com/llehouerou/tubeq/internal/playlist"
)

// DefaultVolume is the level restored by unmuting when no non-zero level
// was ever set.
const DefaultVolume = 50

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	mu sync.RWMutex

	queue    *playlist.PlayingQueue
	backends map[playlist.SourceKind]player.Backend
	logger   *zap.Logger

	state  State
	active player.Backend // backend holding the handle, nil when idle
	media  string         // media loaded into active

	loaded      *playlist.Track // track last handed to a backend
	loadedIndex int

	// finished is set when the last entry played to its end. The backend
	// may have dropped its stream, so playing again reloads the track.
	finished bool
	// holdPaused is set by a pause while loading; Ready then stays paused.
	holdPaused bool

	volume     int
	lastVolume int // last non-zero level, restored on unmute
	muted      bool

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// Option configures the playback service.
type Option func(*serviceImpl)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *serviceImpl) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVolume sets the initial volume level and mute state.
func WithVolume(level int, muted bool) Option {
	return func(s *serviceImpl) {
		s.volume = player.ClampVolume(level)
		if s.volume > 0 {
			s.lastVolume = s.volume
		}
		s.muted = muted
	}
}

// New creates a playback service driving q. Each backend serves the
// source kind it reports; a later backend for the same kind wins.
func New(q *playlist.PlayingQueue, backends []player.Backend, opts ...Option) Service {
	s := &serviceImpl{
		queue:       q,
		backends:    make(map[playlist.SourceKind]player.Backend, len(backends)),
		logger:      zap.NewNop(),
		loadedIndex: -1,
		volume:      DefaultVolume,
		lastVolume:  DefaultVolume,
		done:        make(chan struct{}),
	}
	for _, b := range backends {
		s.backends[b.Kind()] = b
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current playback state.
func (s *serviceImpl) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Volume returns the volume level, 0 to 100.
func (s *serviceImpl) Volume() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// Muted reports whether output is muted.
func (s *serviceImpl) Muted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.muted
}

// CurrentTrack returns a copy of the current queue track, or nil if none.
func (s *serviceImpl) CurrentTrack() *playlist.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.queue.Current()
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// Snapshot returns the controller and queue state read under one lock.
func (s *serviceImpl) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		State:    s.state,
		Entries:  s.queue.Entries(),
		Index:    s.queue.CurrentIndex(),
		Shuffled: s.queue.Shuffled(),
		Volume:   s.volume,
		Muted:    s.muted,
	}
	if t := s.queue.Current(); t != nil {
		cp := *t
		snap.Current = &cp
	}
	return snap
}

// Enqueue appends tracks and starts playback if the queue was empty.
func (s *serviceImpl) Enqueue(tracks ...playlist.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := s.queue.Enqueue(tracks...)
	if len(tracks) > 0 {
		s.broadcastQueueLocked()
	}
	s.applyLocked(sig)
}

// Replace swaps the queue contents and starts from the first track.
func (s *serviceImpl) Replace(tracks ...playlist.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := s.queue.Replace(tracks...)
	s.broadcastQueueLocked()
	s.broadcastModeLocked()
	s.applyLocked(sig)
}

// RemoveAt removes the entry at index.
func (s *serviceImpl) RemoveAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, err := s.queue.RemoveAt(index)
	if err != nil {
		return err
	}
	s.broadcastQueueLocked()
	s.applyLocked(sig)
	return nil
}

// RemoveTrack removes every entry holding the track.
func (s *serviceImpl) RemoveTrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.queue.Len()
	sig := s.queue.RemoveTrack(id)
	if s.queue.Len() != before {
		s.broadcastQueueLocked()
	}
	s.applyLocked(sig)
}

// ClearQueue empties the queue and stops playback.
func (s *serviceImpl) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := s.queue.Clear()
	s.broadcastQueueLocked()
	s.applyLocked(sig)
}

// JumpTo moves the cursor to index and loads that track.
func (s *serviceImpl) JumpTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, err := s.queue.JumpTo(index)
	if err != nil {
		return err
	}
	s.broadcastQueueLocked()
	s.applyLocked(sig)
	return nil
}

// Next skips to the next track. At the end of the queue it does nothing.
func (s *serviceImpl) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sig := s.queue.Next(); sig != playlist.SignalNone {
		s.broadcastQueueLocked()
		s.applyLocked(sig)
	}
}

// Previous goes back one track. At the start of the queue it does nothing.
func (s *serviceImpl) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sig := s.queue.Previous(); sig != playlist.SignalNone {
		s.broadcastQueueLocked()
		s.applyLocked(sig)
	}
}

// Reorder rearranges the queue. Playback is not interrupted.
func (s *serviceImpl) Reorder(keys []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queue.Reorder(keys); err != nil {
		return err
	}
	s.loadedIndex = s.queue.CurrentIndex()
	s.broadcastQueueLocked()
	return nil
}

// Move moves one entry. Playback is not interrupted.
func (s *serviceImpl) Move(fromIndex, toIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queue.Move(fromIndex, toIndex); err != nil {
		return err
	}
	s.loadedIndex = s.queue.CurrentIndex()
	s.broadcastQueueLocked()
	return nil
}

// ToggleShuffle toggles shuffle and returns the new state.
func (s *serviceImpl) ToggleShuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.queue.Shuffled()
	shuffled := s.queue.ToggleShuffle()
	if shuffled != was {
		s.loadedIndex = s.queue.CurrentIndex()
		s.broadcastModeLocked()
		s.broadcastQueueLocked()
	}
	return shuffled
}

// Play starts playback from idle or resumes a paused track.
func (s *serviceImpl) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playLocked()
}

func (s *serviceImpl) playLocked() error {
	switch s.state {
	case StateIdle:
		if s.queue.IsEmpty() {
			return ErrEmptyQueue
		}
		s.loadCurrentLocked()
	case StatePaused:
		if s.finished {
			s.loadCurrentLocked()
			return nil
		}
		if err := s.active.Play(); err != nil {
			s.commandFailedLocked("play", err)
			return err
		}
		s.setStateLocked(StatePlaying)
	case StateLoading:
		s.holdPaused = false
	case StatePlaying:
	}
	return nil
}

// Pause pauses playback. While loading, the track stays paused once ready.
func (s *serviceImpl) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauseLocked()
}

func (s *serviceImpl) pauseLocked() error {
	if s.state == StateLoading {
		s.holdPaused = true
		return nil
	}
	if s.state != StatePlaying {
		return nil
	}
	if err := s.active.Pause(); err != nil {
		s.commandFailedLocked("pause", err)
		return err
	}
	s.setStateLocked(StatePaused)
	return nil
}

// Toggle toggles between play and pause.
func (s *serviceImpl) Toggle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePlaying || (s.state == StateLoading && !s.holdPaused) {
		return s.pauseLocked()
	}
	return s.playLocked()
}

// SetVolume sets the level, clamped to 0..100. A non-zero level unmutes.
func (s *serviceImpl) SetVolume(level int) {
	level = player.ClampVolume(level)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = level
	if level > 0 {
		s.lastVolume = level
	}
	if s.active != nil {
		if err := s.active.SetVolume(level); err != nil {
			s.commandFailedLocked("volume", err)
		}
	}
	if level > 0 && s.muted {
		s.muted = false
		if s.active != nil {
			if err := s.active.Unmute(); err != nil {
				s.commandFailedLocked("unmute", err)
			}
		}
	}
	s.broadcastVolumeLocked()
}

// ToggleMute mutes or unmutes and returns the new mute state. Unmuting a
// zero level restores the last non-zero one.
func (s *serviceImpl) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.muted {
		s.muted = false
		if s.volume == 0 {
			s.volume = s.lastVolume
		}
		if s.active != nil {
			if err := s.active.Unmute(); err != nil {
				s.commandFailedLocked("unmute", err)
			}
			if err := s.active.SetVolume(s.volume); err != nil {
				s.commandFailedLocked("volume", err)
			}
		}
	} else {
		s.muted = true
		if s.active != nil {
			if err := s.active.Mute(); err != nil {
				s.commandFailedLocked("mute", err)
			}
		}
	}
	s.broadcastVolumeLocked()
	return s.muted
}

// HandleEvent applies a player lifecycle event. Events from a backend that
// is not active, or about media that is no longer loaded, are dropped.
func (s *serviceImpl) HandleEvent(e player.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || e.Source != s.active.Kind() {
		s.logger.Debug("dropping event from inactive backend",
			zap.Stringer("event", e.Kind), zap.Stringer("source", e.Source))
		return
	}
	if e.Media != "" && e.Media != s.media {
		s.logger.Debug("dropping stale event",
			zap.Stringer("event", e.Kind), zap.String("media", e.Media))
		return
	}

	switch e.Kind {
	case player.EventReady:
		if s.state != StateLoading {
			return
		}
		s.applyVolumeLocked()
		if s.holdPaused {
			s.holdPaused = false
			s.setStateLocked(StatePaused)
			return
		}
		if err := s.active.Play(); err != nil {
			s.commandFailedLocked("play", err)
			return
		}
		s.setStateLocked(StatePlaying)
	case player.EventPlaying:
		s.setStateLocked(StatePlaying)
	case player.EventPaused:
		if s.state == StatePlaying {
			s.setStateLocked(StatePaused)
		}
	case player.EventEnded:
		s.advanceLocked(false)
	case player.EventError:
		trackID := ""
		if s.loaded != nil {
			trackID = s.loaded.ID
		}
		s.logger.Warn("player error, skipping track",
			zap.String("track", trackID), zap.Error(e.Err))
		s.broadcastError(ErrorEvent{Operation: "play", TrackID: trackID, Err: e.Err})
		s.advanceLocked(true)
	}
}

// Run feeds backend events into HandleEvent until ctx is done or the
// service is closed.
func (s *serviceImpl) Run(ctx context.Context) error {
	events := make(chan player.Event)

	var wg sync.WaitGroup
	defer wg.Wait()

	s.mu.RLock()
	backends := make([]player.Backend, 0, len(s.backends))
	for _, b := range s.backends {
		backends = append(backends, b)
	}
	s.mu.RUnlock()

	for _, b := range backends {
		wg.Add(1)
		go func(src <-chan player.Event) {
			defer wg.Done()
			for {
				select {
				case e, ok := <-src:
					if !ok {
						return
					}
					select {
					case events <- e:
					case <-ctx.Done():
						return
					case <-s.done:
						return
					}
				case <-ctx.Done():
					return
				case <-s.done:
					return
				}
			}
		}(b.Events())
	}

	for {
		select {
		case e := <-events:
			s.HandleEvent(e)
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		}
	}
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close releases the active backend and shuts down the service.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.releaseLocked()
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}

// applyLocked reacts to a queue signal.
func (s *serviceImpl) applyLocked(sig playlist.Signal) {
	switch sig {
	case playlist.SignalStart, playlist.SignalLoadCurrent:
		s.loadCurrentLocked()
	case playlist.SignalStop:
		s.stopLocked()
	case playlist.SignalNone:
	}
}

// advanceLocked moves past the current entry after it ended or failed.
// At the end of the queue a finished track stays paused on its handle,
// a failed one leaves nothing loaded.
func (s *serviceImpl) advanceLocked(failed bool) {
	if s.queue.Next() == playlist.SignalNone {
		if failed {
			s.stopLocked()
		} else {
			s.finished = true
			s.setStateLocked(StatePaused)
		}
		return
	}
	s.broadcastQueueLocked()
	s.loadCurrentLocked()
}

// loadCurrentLocked hands the current entry to its backend, skipping
// forward over entries that cannot be loaded.
func (s *serviceImpl) loadCurrentLocked() {
	for {
		entry := s.queue.CurrentEntry()
		if entry == nil {
			s.stopLocked()
			return
		}
		track := entry.Track
		err := s.loadLocked(track)
		if err == nil {
			return
		}

		s.logger.Warn("skipping unplayable track",
			zap.String("track", track.ID), zap.String("title", track.Title), zap.Error(err))
		s.broadcastError(ErrorEvent{Operation: "load", TrackID: track.ID, Err: err})

		if s.queue.Next() == playlist.SignalNone {
			s.stopLocked()
			return
		}
		s.broadcastQueueLocked()
	}
}

func (s *serviceImpl) loadLocked(track playlist.Track) error {
	media, err := track.MediaID()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnresolvable, err)
	}
	b, ok := s.backends[track.Source]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoBackend, track.Source)
	}

	// Only one backend may be audible.
	if s.active != nil && s.active != b {
		s.releaseLocked()
	}
	if s.active == nil {
		err = b.Open(media)
	} else {
		err = b.Load(media)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", track.Source, err)
	}
	s.active = b
	s.media = media
	s.finished = false
	s.holdPaused = false
	s.setStateLocked(StateLoading)

	prev, prevIndex := s.loaded, s.loadedIndex
	cur := track
	s.loaded = &cur
	s.loadedIndex = s.queue.CurrentIndex()
	s.broadcastTrack(TrackChange{
		Previous:      prev,
		Current:       &cur,
		PreviousIndex: prevIndex,
		Index:         s.loadedIndex,
	})
	return nil
}

// stopLocked releases the handle and goes idle.
func (s *serviceImpl) stopLocked() {
	s.releaseLocked()
	s.loaded = nil
	s.loadedIndex = -1
	s.finished = false
	s.holdPaused = false
	s.setStateLocked(StateIdle)
}

func (s *serviceImpl) releaseLocked() {
	if s.active == nil {
		return
	}
	if s.state == StatePlaying {
		if err := s.active.Pause(); err != nil {
			s.commandFailedLocked("pause", err)
		}
	}
	if err := s.active.Detach(); err != nil {
		s.commandFailedLocked("detach", err)
	}
	s.active = nil
	s.media = ""
}

func (s *serviceImpl) applyVolumeLocked() {
	if err := s.active.SetVolume(s.volume); err != nil {
		s.commandFailedLocked("volume", err)
	}
	var err error
	if s.muted {
		err = s.active.Mute()
	} else {
		err = s.active.Unmute()
	}
	if err != nil {
		s.commandFailedLocked("mute", err)
	}
}

func (s *serviceImpl) commandFailedLocked(op string, err error) {
	s.logger.Warn("backend command failed",
		zap.String("command", op), zap.Stringer("source", s.active.Kind()), zap.Error(err))
	trackID := ""
	if s.loaded != nil {
		trackID = s.loaded.ID
	}
	s.broadcastError(ErrorEvent{Operation: op, TrackID: trackID, Err: err})
}

func (s *serviceImpl) setStateLocked(st State) {
	if s.state == st {
		return
	}
	prev := s.state
	s.state = st
	s.logger.Debug("playback state", zap.Stringer("from", prev), zap.Stringer("to", st))
	s.broadcastState(StateChange{Previous: prev, Current: st})
}

func (s *serviceImpl) broadcastQueueLocked() {
	s.broadcastQueue(QueueChange{
		Entries: s.queue.Entries(),
		Index:   s.queue.CurrentIndex(),
	})
}

func (s *serviceImpl) broadcastModeLocked() {
	s.broadcastMode(ModeChange{Shuffle: s.queue.Shuffled()})
}

func (s *serviceImpl) broadcastVolumeLocked() {
	s.broadcastVolume(VolumeChange{Level: s.volume, Muted: s.muted})
}

func (s *serviceImpl) broadcastState(e StateChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendState(e)
	}
}

func (s *serviceImpl) broadcastTrack(e TrackChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendTrack(e)
	}
}

func (s *serviceImpl) broadcastQueue(e QueueChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendQueue(e)
	}
}

func (s *serviceImpl) broadcastMode(e ModeChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendMode(e)
	}
}

func (s *serviceImpl) broadcastVolume(e VolumeChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendVolume(e)
	}
}

func (s *serviceImpl) broadcastError(e ErrorEvent) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendError(e)
	}
}
