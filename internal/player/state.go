package player

// State is where the local audio backend is with its current stream.
// A stream is decoded paused; Play and Pause flip between Playing and
// Paused; the stream ending or Detach returns to Stopped.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	}
	return "Unknown"
}

// CanPause reports whether Pause has an effect.
func (s State) CanPause() bool { return s == Playing }

// CanResume reports whether Play has an effect.
func (s State) CanResume() bool { return s == Paused }
