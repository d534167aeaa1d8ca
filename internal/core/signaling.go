package core

//go:generate mockgen -source=signaling.go -destination=mocks/signaling_mock.go -package=mocks

import (
	"context"
	"errors"

	"github.com/dkeye/peercall/internal/domain"
)

var (
	// ErrEndpointInUse is returned by Dial when the broker already holds a live
	// connection for the requested endpoint id.
	ErrEndpointInUse    = errors.New("endpoint id in use")
	ErrConnectionClosed = errors.New("connection closed")
	ErrCallClosed       = errors.New("call closed")
)

type DialRequest struct {
	Endpoint domain.EndpointID
	Identity domain.UserIdentity
	Context  domain.SessionContext
}

// Signaling opens connections to the rendezvous broker.
type Signaling interface {
	Dial(ctx context.Context, req DialRequest) (Connection, error)
}

type ConnEventKind int

const (
	ConnIncoming ConnEventKind = iota
	ConnAnnounce
	ConnLeave
	ConnError
	ConnClosed
)

func (k ConnEventKind) String() string {
	switch k {
	case ConnIncoming:
		return "incoming"
	case ConnAnnounce:
		return "announce"
	case ConnLeave:
		return "leave"
	case ConnError:
		return "error"
	case ConnClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type ConnEvent struct {
	Kind   ConnEventKind
	Peer   domain.Peer
	Invite IncomingCall
	Err    error
}

// Connection is one live signaling connection bound to a single endpoint id.
// Events is closed after a ConnClosed event.
type Connection interface {
	Endpoint() domain.EndpointID
	Events() <-chan ConnEvent
	PlaceCall(ctx context.Context, target domain.Peer, stream LocalStream) (CallHandle, error)
	// Discover returns live endpoints announced for identity, most recent first.
	Discover(ctx context.Context, identity domain.UserIdentity) ([]domain.EndpointID, error)
	// Probe reports whether endpoint is currently connected.
	Probe(ctx context.Context, endpoint domain.EndpointID) (bool, error)
	Close() error
}

type CallEventKind int

const (
	CallRemoteTrack CallEventKind = iota
	CallClosed
	CallError
)

type CallEvent struct {
	Kind  CallEventKind
	Track Track
	Err   error
}

// CallHandle is a placed or answered media session with one remote endpoint.
// Events is closed after a CallClosed event.
type CallHandle interface {
	ID() string
	Remote() domain.Peer
	Events() <-chan CallEvent
	// ReplaceTrack swaps the outgoing track of kind without renegotiation.
	ReplaceTrack(kind TrackKind, track LocalTrack) error
	RequestKeyframe() error
	Close() error
}

// IncomingCall is an invite not yet answered.
type IncomingCall interface {
	ID() string
	From() domain.Peer
	// Done is closed when the caller withdraws the invite.
	Done() <-chan struct{}
	Answer(ctx context.Context, stream LocalStream) (CallHandle, error)
	Reject() error
}
