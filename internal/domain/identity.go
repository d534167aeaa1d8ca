// Package domain contains entities without transport logic, just meta-data
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxIdentityLen = 64
	MaxContextLen  = 64
)

var (
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrIdentityTooLong = errors.New("identity too long")
	ErrContextEmpty    = errors.New("session context empty")
	ErrContextTooLong  = errors.New("session context too long")
)

// endpointNamespace scopes derived endpoint identifiers. Both parties must use
// the same value for derivation to converge.
var endpointNamespace = uuid.MustParse("5b0f3a1e-8f43-4c55-9d4a-6a4f6c2b7e10")

type (
	// UserIdentity is a stable logical name for a party, never a network address.
	UserIdentity string
	// SessionContext scopes rendezvous; both parties of a call share it.
	SessionContext string
	// EndpointID is unique to one live signaling connection.
	EndpointID string
)

func (i UserIdentity) String() string   { return string(i) }
func (c SessionContext) String() string { return string(c) }
func (e EndpointID) String() string     { return string(e) }

// Peer is an announced (identity, endpoint) pair.
type Peer struct {
	Identity UserIdentity `json:"identity"`
	Endpoint EndpointID   `json:"endpoint"`
}

func ParseIdentity(s string) (UserIdentity, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return "", ErrIdentityEmpty
	}
	if len(s) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	return UserIdentity(s), nil
}

func ParseContext(s string) (SessionContext, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return "", ErrContextEmpty
	}
	if len(s) > MaxContextLen {
		return "", ErrContextTooLong
	}
	return SessionContext(s), nil
}

// DeriveEndpoint returns the deterministic rendezvous endpoint for identity
// inside sctx. Any party knowing both values computes the same identifier.
func DeriveEndpoint(identity UserIdentity, sctx SessionContext) EndpointID {
	name := string(sctx) + "/" + string(identity)
	return EndpointID(uuid.NewSHA1(endpointNamespace, []byte(name)).String())
}

// NewEndpointID returns a fresh random endpoint identifier.
func NewEndpointID() EndpointID {
	return EndpointID(uuid.NewString())
}
