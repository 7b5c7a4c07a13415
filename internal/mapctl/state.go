package mapctl

import "github.com/rotisserie/eris"

// State is the map interaction state.
type State int

const (
	Idle State = iota
	CreationArmed
	Dragging
	RegionSelected
)

var stateNames = map[State]string{
	Idle:           "idle",
	CreationArmed:  "creation_armed",
	Dragging:       "dragging",
	RegionSelected: "region_selected",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for k, v := range stateNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return eris.Errorf("mapctl: unknown state %q", string(b))
}
