// Package proto is the JSON wire format spoken between endpoints and the
// signaling broker.
package proto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/peercall/internal/domain"
)

const (
	TypeHello      = "hello"
	TypeWelcome    = "welcome"
	TypeAnnounce   = "announce"
	TypeLeave      = "leave"
	TypeDiscover   = "discover"
	TypeDiscovered = "discovered"
	TypeProbe      = "probe"
	TypeProbed     = "probed"
	TypeInvite     = "invite"
	TypeAnswer     = "answer"
	TypeReject     = "reject"
	TypeHangup     = "hangup"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeError      = "error"
)

// Error codes carried in TypeError envelopes.
const (
	CodeIDInUse       = "id-in-use"
	CodeBadPayload    = "bad_payload"
	CodeNotRegistered = "not_registered"
	CodeUnknownPeer   = "unknown_peer"
	CodeRateLimited   = "rate_limited"
)

var ErrEmptyType = errors.New("envelope without type")

// Envelope is every message on the signaling socket. Fields unused by a type
// stay empty.
type Envelope struct {
	Type      string                `json:"type"`
	ID        string                `json:"id,omitempty"`
	Call      string                `json:"call,omitempty"`
	From      *domain.Peer          `json:"from,omitempty"`
	To        domain.EndpointID     `json:"to,omitempty"`
	Identity  domain.UserIdentity   `json:"identity,omitempty"`
	Context   domain.SessionContext `json:"context,omitempty"`
	Endpoint  domain.EndpointID     `json:"endpoint,omitempty"`
	Endpoints []domain.EndpointID   `json:"endpoints,omitempty"`
	Peers     []domain.Peer         `json:"peers,omitempty"`
	Online    bool                  `json:"online,omitempty"`
	SDP       string                `json:"sdp,omitempty"`
	Code      string                `json:"code,omitempty"`
	Error     string                `json:"error,omitempty"`
}

func Encode(env Envelope) ([]byte, error) {
	if env.Type == "" {
		return nil, ErrEmptyType
	}
	return json.Marshal(env)
}

func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrEmptyType
	}
	return env, nil
}

func Errorf(id, code, format string, args ...any) Envelope {
	return Envelope{Type: TypeError, ID: id, Code: code, Error: fmt.Sprintf(format, args...)}
}

// RemoteError is a TypeError envelope surfaced as a Go error.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func (env Envelope) Err() error {
	if env.Type != TypeError {
		return nil
	}
	return &RemoteError{Code: env.Code, Message: env.Error}
}
