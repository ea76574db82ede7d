package request

// State is the lifecycle position of a Request.
type State int

const (
	StateReady State = iota
	StateInFlight
	StateDone
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateInFlight:
		return "in-flight"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

type event int

const (
	eventStart event = iota
	eventComplete
	eventStop
)

var transitions = map[State]map[event]State{
	StateReady: {
		eventStart: StateInFlight,
	},
	StateInFlight: {
		eventComplete: StateDone,
		eventStop:     StateDone,
	},
}

// next returns the state reached from s on e, or false when e is not allowed in s.
func (s State) next(e event) (State, bool) {
	to, ok := transitions[s][e]
	return to, ok
}
