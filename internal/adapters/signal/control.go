package signal

import (
	"errors"

	"github.com/dkeye/peercall/internal/broker"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/proto"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn, env proto.Envelope) {
	ctl.sendJSON(conn, proto.Envelope{Type: proto.TypePong, ID: env.ID})
}

func (ctl *SignalWSController) handleHello(p *wsPeer, env proto.Envelope) {
	if p.registered {
		ctl.sendJSON(p.conn, proto.Errorf(env.ID, proto.CodeBadPayload, "already registered as %s", p.peer.Endpoint))
		return
	}
	peer, err := ctl.Broker.Register(env, p.conn, p.cancel)
	switch {
	case errors.Is(err, core.ErrEndpointInUse):
		log.Info().Str("module", "signal").Str("endpoint", env.Endpoint.String()).Msg("endpoint in use")
		ctl.sendJSON(p.conn, proto.Errorf(env.ID, proto.CodeIDInUse, "%s", env.Endpoint))
		return
	case err != nil:
		ctl.sendJSON(p.conn, proto.Errorf(env.ID, proto.CodeBadPayload, "%v", err))
		return
	}
	p.peer = peer
	p.registered = true
	log.Info().Str("module", "signal").Str("endpoint", peer.Endpoint.String()).Str("identity", peer.Identity.String()).Msg("hello")
}

func (ctl *SignalWSController) handleDiscover(p *wsPeer, env proto.Envelope) {
	eps, err := ctl.Broker.Discover(p.peer.Endpoint, env.Identity)
	if err != nil {
		ctl.sendJSON(p.conn, proto.Errorf(env.ID, proto.CodeNotRegistered, "%v", err))
		return
	}
	ctl.sendJSON(p.conn, proto.Envelope{Type: proto.TypeDiscovered, ID: env.ID, Identity: env.Identity, Endpoints: eps})
}

func (ctl *SignalWSController) handleProbe(p *wsPeer, env proto.Envelope) {
	online, err := ctl.Broker.Probe(p.peer.Endpoint, env.Endpoint)
	if err != nil {
		ctl.sendJSON(p.conn, proto.Errorf(env.ID, proto.CodeNotRegistered, "%v", err))
		return
	}
	ctl.sendJSON(p.conn, proto.Envelope{Type: proto.TypeProbed, ID: env.ID, Endpoint: env.Endpoint, Online: online})
}

func (ctl *SignalWSController) handleInvite(p *wsPeer, env proto.Envelope) {
	if ctl.Limiter != nil && !ctl.Limiter.Allow(p.peer.Identity) {
		log.Warn().Str("module", "signal").Str("identity", p.peer.Identity.String()).Msg("invite rate limited")
		ctl.Broker.Metrics.Rejected(proto.CodeRateLimited)
		ctl.sendJSON(p.conn, proto.Envelope{Type: proto.TypeError, Call: env.Call, Code: proto.CodeRateLimited, Error: "too many invites"})
		return
	}
	ctl.handleRelay(p, env)
}

func (ctl *SignalWSController) handleRelay(p *wsPeer, env proto.Envelope) {
	err := ctl.Broker.Relay(p.peer.Endpoint, env)
	if err == nil {
		return
	}
	code := proto.CodeBadPayload
	if errors.Is(err, broker.ErrUnknownPeer) || errors.Is(err, broker.ErrOtherContext) {
		code = proto.CodeUnknownPeer
	}
	log.Debug().Err(err).Str("module", "signal").Str("type", env.Type).Msg("relay")
	ctl.sendJSON(p.conn, proto.Envelope{Type: proto.TypeError, Call: env.Call, Code: code, Error: err.Error()})
}
