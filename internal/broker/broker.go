// Package broker is the rendezvous side of signaling: it assigns endpoint
// ids, announces presence inside a session context, answers lookups and
// relays call envelopes between endpoints.
package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/dkeye/peercall/internal/metrics"
	"github.com/dkeye/peercall/internal/proto"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownPeer   = errors.New("unknown endpoint")
	ErrOtherContext  = errors.New("endpoint in another context")
	ErrNotRelayable  = errors.New("envelope type is not relayed")
	ErrNotRegistered = errors.New("endpoint not registered")
)

type Broker struct {
	Registry *Registry
	Policy   Policy
	Metrics  *metrics.Broker
}

func New(policy Policy, m *metrics.Broker) *Broker {
	if policy == nil {
		policy = SimplePolicy{MaxStrikes: 3}
	}
	return &Broker{Registry: NewRegistry(), Policy: policy, Metrics: m}
}

// Register binds conn under the endpoint requested in hello, or a fresh one
// when hello names none. Other members of the context are told about it and
// the welcome lists them.
func (b *Broker) Register(hello proto.Envelope, conn core.SignalConnection, cancel context.CancelFunc) (domain.Peer, error) {
	identity, err := domain.ParseIdentity(string(hello.Identity))
	if err != nil {
		b.Metrics.Rejected("bad_identity")
		return domain.Peer{}, err
	}
	sctx, err := domain.ParseContext(string(hello.Context))
	if err != nil {
		b.Metrics.Rejected("bad_context")
		return domain.Peer{}, err
	}
	ep := hello.Endpoint
	if ep == "" {
		ep = domain.NewEndpointID()
	}
	peer := domain.Peer{Identity: identity, Endpoint: ep}
	if err := b.Registry.Bind(peer, sctx, conn, cancel); err != nil {
		b.Metrics.Rejected(proto.CodeIDInUse)
		return domain.Peer{}, err
	}
	b.Metrics.Registered(1)

	members := b.Registry.MembersOf(sctx)
	peers := make([]domain.Peer, 0, len(members))
	for _, m := range members {
		if m.Peer.Endpoint == ep {
			continue
		}
		peers = append(peers, m.Peer)
		b.deliver(m, proto.Envelope{Type: proto.TypeAnnounce, From: &peer})
	}
	b.deliver(Member{Peer: peer, Context: sctx, Conn: conn}, proto.Envelope{
		Type:     proto.TypeWelcome,
		ID:       hello.ID,
		Endpoint: ep,
		Peers:    peers,
	})
	return peer, nil
}

// Unregister drops ep if conn still owns it and tells the context.
func (b *Broker) Unregister(ep domain.EndpointID, conn core.SignalConnection) {
	m, ok := b.Registry.Unbind(ep, conn)
	if !ok {
		return
	}
	b.Metrics.Registered(-1)
	for _, other := range b.Registry.MembersOf(m.Context) {
		b.deliver(other, proto.Envelope{Type: proto.TypeLeave, From: &m.Peer})
	}
}

// Discover answers with the endpoints of identity in the caller's context.
func (b *Broker) Discover(from domain.EndpointID, identity domain.UserIdentity) ([]domain.EndpointID, error) {
	m, ok := b.Registry.Get(from)
	if !ok {
		return nil, ErrNotRegistered
	}
	return b.Registry.Find(m.Context, identity), nil
}

// Probe reports whether target is live in the caller's context.
func (b *Broker) Probe(from, target domain.EndpointID) (bool, error) {
	m, ok := b.Registry.Get(from)
	if !ok {
		return false, ErrNotRegistered
	}
	t, ok := b.Registry.Get(target)
	return ok && t.Context == m.Context, nil
}

// Relay forwards a call envelope to env.To with From filled in by the broker.
func (b *Broker) Relay(from domain.EndpointID, env proto.Envelope) error {
	switch env.Type {
	case proto.TypeInvite, proto.TypeAnswer, proto.TypeReject, proto.TypeHangup:
	default:
		return fmt.Errorf("%w: %s", ErrNotRelayable, env.Type)
	}
	src, ok := b.Registry.Get(from)
	if !ok {
		return ErrNotRegistered
	}
	dst, ok := b.Registry.Get(env.To)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, env.To)
	}
	if dst.Context != src.Context {
		return fmt.Errorf("%w: %s", ErrOtherContext, env.To)
	}
	peer := src.Peer
	env.From = &peer
	b.Metrics.Relayed(env.Type)
	b.deliver(dst, env)
	return nil
}

// Send writes env to one endpoint, applying the backpressure policy.
func (b *Broker) Send(ep domain.EndpointID, env proto.Envelope) {
	if m, ok := b.Registry.Get(ep); ok {
		b.deliver(m, env)
	}
}

func (b *Broker) deliver(m Member, env proto.Envelope) {
	data, err := proto.Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "broker").Msg("encode envelope")
		return
	}
	err = m.Conn.TrySend(data)
	switch {
	case err == nil:
		b.Registry.ClearStrikes(m.Peer.Endpoint)
	case errors.Is(err, core.ErrBackpressure):
		strikes := b.Registry.Strike(m.Peer.Endpoint)
		switch b.Policy.OnBackPressure(m.Peer, strikes) {
		case KickMember:
			log.Warn().Str("module", "broker").Str("endpoint", m.Peer.Endpoint.String()).Int("strikes", strikes).Msg("kicking slow endpoint")
			b.Metrics.Kicked()
			b.Registry.Cancel(m.Peer.Endpoint)
		case DropFrame:
			log.Debug().Str("module", "broker").Str("endpoint", m.Peer.Endpoint.String()).Str("type", env.Type).Msg("dropped frame")
		}
	default:
		log.Debug().Err(err).Str("module", "broker").Str("endpoint", m.Peer.Endpoint.String()).Msg("send failed")
	}
}

// Stats is served on the broker's HTTP API.
type Stats struct {
	Endpoints int           `json:"endpoints"`
	Contexts  []ContextInfo `json:"contexts"`
}

func (b *Broker) Stats() Stats {
	return Stats{Endpoints: b.Registry.Count(), Contexts: b.Registry.Contexts().List()}
}
