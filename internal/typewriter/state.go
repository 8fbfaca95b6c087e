package typewriter

import "github.com/cockroachdb/errors"

// State is the machine's position in its type/pause/delete cycle.
type State int

const (
	StateTyping       State = iota // revealing characters
	StatePausedAtFull              // holding the complete phrase
	StateDeleting                  // removing characters (loop mode only)
	StateDone                      // run-once sequence finished
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateTyping:
		return "typing"
	case StatePausedAtFull:
		return "paused"
	case StateDeleting:
		return "deleting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// MarshalText lets frames carry the state by name.
func (s State) MarshalText() ([]byte, error) {
	if s < StateTyping || s > StateDone {
		return nil, errors.Newf("typewriter: invalid state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for st := StateTyping; st <= StateDone; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return errors.Newf("typewriter: unknown state %q", text)
}
