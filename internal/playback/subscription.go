package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StateChanged  <-chan StateChange
	TrackChanged  <-chan TrackChange
	QueueChanged  <-chan QueueChange
	ModeChanged   <-chan ModeChange
	VolumeChanged <-chan VolumeChange
	Error         <-chan ErrorEvent
	Done          <-chan struct{}

	// Internal write channels
	stateCh  chan StateChange
	trackCh  chan TrackChange
	queueCh  chan QueueChange
	modeCh   chan ModeChange
	volumeCh chan VolumeChange
	errorCh  chan ErrorEvent
	doneCh   chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:  make(chan StateChange, eventBufferSize),
		trackCh:  make(chan TrackChange, eventBufferSize),
		queueCh:  make(chan QueueChange, eventBufferSize),
		modeCh:   make(chan ModeChange, eventBufferSize),
		volumeCh: make(chan VolumeChange, eventBufferSize),
		errorCh:  make(chan ErrorEvent, eventBufferSize),
		doneCh:   make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.QueueChanged = s.queueCh
	s.ModeChanged = s.modeCh
	s.VolumeChanged = s.volumeCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendState sends a state change event (non-blocking).
func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendQueue(e QueueChange) {
	select {
	case s.queueCh <- e:
	default:
	}
}

func (s *Subscription) sendMode(e ModeChange) {
	select {
	case s.modeCh <- e:
	default:
	}
}

func (s *Subscription) sendVolume(e VolumeChange) {
	select {
	case s.volumeCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
