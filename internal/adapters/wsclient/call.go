package wsclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/peercall/internal/adapters/rtc"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/dkeye/peercall/internal/proto"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PlaceCall sends an offer to target and returns without waiting for the
// answer. The answer, a rejection or a hangup arrive as call events.
func (c *Conn) PlaceCall(ctx context.Context, target domain.Peer, stream core.LocalStream) (core.CallHandle, error) {
	if c.ctx.Err() != nil {
		return nil, core.ErrConnectionClosed
	}
	call, err := rtc.NewConnection(c.client.API, c.client.RTC, uuid.NewString(), target)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	call.Start()
	if err := call.AttachLocal(stream); err != nil {
		_ = call.Close()
		return nil, err
	}
	offer, err := call.CreateOffer()
	if err != nil {
		_ = call.Close()
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = call.Close()
		return nil, err
	}

	c.track(call)
	if err := c.trySend(proto.Envelope{Type: proto.TypeInvite, Call: call.ID(), To: target.Endpoint, SDP: offer}); err != nil {
		call.Terminate(err)
		return nil, err
	}
	log.Info().Str("module", "wsclient").Str("call", call.ID()).Str("to", target.Endpoint.String()).Msg("invite sent")
	return call, nil
}

func (c *Conn) incoming(env proto.Envelope) {
	if env.From == nil || env.Call == "" {
		return
	}
	inv := &invite{conn: c, id: env.Call, from: *env.From, offer: env.SDP, done: make(chan struct{})}
	c.mu.Lock()
	c.invites[inv.id] = inv
	c.mu.Unlock()
	log.Info().Str("module", "wsclient").Str("call", inv.id).Str("from", inv.from.Endpoint.String()).Msg("invite received")
	c.emit(core.ConnEvent{Kind: core.ConnIncoming, Peer: inv.from, Invite: inv})
}

func (c *Conn) takeInvite(id string) *invite {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv, ok := c.invites[id]
	if !ok {
		return nil
	}
	delete(c.invites, id)
	return inv
}

// invite implements core.IncomingCall. Answer, Reject and withdrawal are
// mutually exclusive; the first to take it from the conn wins.
type invite struct {
	conn  *Conn
	id    string
	from  domain.Peer
	offer string

	once sync.Once
	done chan struct{}
}

func (i *invite) ID() string            { return i.id }
func (i *invite) From() domain.Peer     { return i.from }
func (i *invite) Done() <-chan struct{} { return i.done }
func (i *invite) withdraw()             { i.once.Do(func() { close(i.done) }) }

func (i *invite) Answer(ctx context.Context, stream core.LocalStream) (core.CallHandle, error) {
	if i.conn.takeInvite(i.id) == nil {
		return nil, core.ErrCallClosed
	}
	call, err := rtc.NewConnection(i.conn.client.API, i.conn.client.RTC, i.id, i.from)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	call.Start()
	fail := func(err error) (core.CallHandle, error) {
		_ = call.Close()
		_ = i.conn.trySend(proto.Envelope{Type: proto.TypeReject, Call: i.id, To: i.from.Endpoint})
		return nil, err
	}
	if err := call.AttachLocal(stream); err != nil {
		return fail(err)
	}
	answer, err := call.ApplyOfferAndCreateAnswer(i.offer)
	if err != nil {
		return fail(fmt.Errorf("answer offer: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	i.conn.track(call)
	if err := i.conn.trySend(proto.Envelope{Type: proto.TypeAnswer, Call: i.id, To: i.from.Endpoint, SDP: answer}); err != nil {
		call.Terminate(err)
		return nil, err
	}
	log.Info().Str("module", "wsclient").Str("call", i.id).Msg("answered")
	return call, nil
}

func (i *invite) Reject() error {
	if i.conn.takeInvite(i.id) == nil {
		return nil
	}
	return i.conn.trySend(proto.Envelope{Type: proto.TypeReject, Call: i.id, To: i.from.Endpoint})
}
