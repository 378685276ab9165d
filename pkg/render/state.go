// Package render drives a streaming session: it pulls PCM from a
// source, fills leased buffer views, and hands them to a diretta link.
package render

import "encoding/json"

// State represents the lifecycle of a render session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateDraining
	StateStopped
	StateFaulted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	case StateFaulted:
		return "faulted"
	default:
		return "idle"
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "connecting":
		*s = StateConnecting
	case "streaming":
		*s = StateStreaming
	case "draining":
		*s = StateDraining
	case "stopped":
		*s = StateStopped
	case "faulted":
		*s = StateFaulted
	default:
		*s = StateIdle
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// IsActive reports whether a session in this state is still moving
// audio.
func (s State) IsActive() bool {
	switch s {
	case StateConnecting, StateStreaming, StateDraining:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the session has ended.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFaulted
}
