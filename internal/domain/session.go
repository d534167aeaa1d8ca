package domain

// State of the single call session a controller owns.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateDialing
	StateRingingIncoming
	StateActive
	StateEnding
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateDialing:
		return "dialing"
	case StateRingingIncoming:
		return "ringing_incoming"
	case StateActive:
		return "active"
	case StateEnding:
		return "ending"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether a new call may be started from s.
func (s State) Terminal() bool {
	return s == StateIdle || s == StateFailed
}

type Direction int

const (
	DirectionOutgoing Direction = iota
	DirectionIncoming
)

func (d Direction) String() string {
	if d == DirectionIncoming {
		return "incoming"
	}
	return "outgoing"
}
