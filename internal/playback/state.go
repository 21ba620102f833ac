// internal/playback/state.go
package playback

// State represents the playback controller state.
//
//	Idle ──start/load──▶ Loading ──ready──▶ Playing ◀──toggle──▶ Paused
//	  ▲                     ▲                  │                   │
//	  │                     └──────load────────┴───────────────────┘
//	  └──────────────────────stop (queue emptied)─────────────────────
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsActive returns true if a player handle is held (loading, playing or paused).
func (s State) IsActive() bool {
	return s != StateIdle
}
