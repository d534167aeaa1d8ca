package transport

import (
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

type EventKind int

const (
	EventOpened EventKind = iota
	EventIncoming
	EventPeerAnnounced
	EventPeerLeft
	EventReconnecting
	EventError
	EventClosed
	EventLost
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventIncoming:
		return "incoming"
	case EventPeerAnnounced:
		return "peer_announced"
	case EventPeerLeft:
		return "peer_left"
	case EventReconnecting:
		return "reconnecting"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	case EventLost:
		return "lost"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind     EventKind
	Endpoint domain.EndpointID
	Peer     domain.Peer
	Invite   core.IncomingCall
	Attempt  int
	Err      error
}
