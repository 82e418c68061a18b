package capture

// State is the externally visible loop state.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateCapturing:
		return "capturing"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
