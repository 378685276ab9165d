package hostbuf

import "encoding/json"

// State is the manager lifecycle: a zero Manager is Unconfigured, New
// returns it Ready, Release parks it at Released until the next Acquire.
type State int

const (
	StateUnconfigured State = iota
	StateReady
	StateReleased
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateReleased:
		return "released"
	default:
		return "unconfigured"
	}
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "ready":
		*s = StateReady
	case "released":
		*s = StateReleased
	default:
		*s = StateUnconfigured
	}
	return nil
}
