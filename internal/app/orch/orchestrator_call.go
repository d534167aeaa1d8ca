package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/peercall/internal/app/media"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/rs/zerolog/log"
)

// StartCall dials identity. It returns once the call is placed and ringing
// on the remote side, or with the classified error that ended the attempt.
func (c *Controller) StartCall(ctx context.Context, identity domain.UserIdentity) (bool, error) {
	reply := make(chan error, 1)
	if err := c.exec(ctx, func() { c.startCall(identity, reply) }); err != nil {
		return false, err
	}
	select {
	case err := <-reply:
		return err == nil, err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Controller) startCall(identity domain.UserIdentity, reply chan error) {
	if !c.sess.State.Terminal() {
		reply <- &domain.Error{
			Kind: domain.KindSessionBusy,
			Op:   "start call",
			Err:  fmt.Errorf("session with %q is %s", c.sess.RemoteIdentity, c.sess.State),
		}
		return
	}
	gen := c.begin(Session{
		LocalParty:     c.cfg.Local,
		RemoteIdentity: identity,
		Direction:      domain.DirectionOutgoing,
	})
	c.startReply = reply
	c.setState(domain.StateResolving)

	actx := c.attemptCtx
	go func() {
		ep, err := c.resolver.Resolve(actx, identity)
		c.post(gen, func() { c.onResolved(gen, ep, err) }, nil)
	}()
}

func (c *Controller) onResolved(gen uint64, ep domain.EndpointID, err error) {
	if c.sess.State != domain.StateResolving {
		return
	}
	if err != nil {
		c.fail(domain.Wrap(domain.KindResolutionFailed, "resolve", err))
		return
	}
	c.sess.RemoteEndpoint = ep

	// Local media is held before Dialing is published.
	actx := c.attemptCtx
	go func() {
		h, err := c.media.Acquire(actx)
		c.post(gen, func() { c.onAcquired(gen, h, err) }, nil)
	}()
}

func (c *Controller) onAcquired(gen uint64, h *media.Handle, err error) {
	if c.sess.State != domain.StateResolving {
		return
	}
	if err != nil {
		c.fail(domain.Wrap(domain.KindMediaUnavailable, "acquire media", err))
		return
	}
	c.timer = c.clock.AfterFunc(c.cfg.OutgoingTimeout, func() {
		c.post(gen, c.onTimeout, nil)
	})
	c.setState(domain.StateDialing)

	actx := c.attemptCtx
	target := domain.Peer{Identity: c.sess.RemoteIdentity, Endpoint: c.sess.RemoteEndpoint}
	go func() {
		call, err := c.place(actx, target, h)
		c.post(gen, func() { c.onPlaced(gen, call, err) }, func() {
			if call != nil {
				_ = call.Close()
			}
		})
	}()
}

// place runs off the loop: the connection, then the invite.
func (c *Controller) place(ctx context.Context, target domain.Peer, h *media.Handle) (core.CallHandle, error) {
	conn, err := c.binding.Connect(ctx, c.cfg.Local, c.cfg.Context)
	if err != nil {
		return nil, domain.Wrap(domain.KindConnectionLost, "connect", err)
	}
	call, err := conn.PlaceCall(ctx, target, h)
	if err != nil {
		return nil, domain.Wrap(domain.KindPeerError, "place call", err)
	}
	return call, nil
}

func (c *Controller) onPlaced(gen uint64, call core.CallHandle, err error) {
	if err != nil {
		c.fail(err)
		return
	}
	c.call = call
	if c.startReply != nil {
		c.startReply <- nil
		c.startReply = nil
	}
	log.Info().Str("module", "orch").Str("call", call.ID()).Str("remote", c.sess.RemoteEndpoint.String()).Msg("call placed")
	go c.watchCall(gen, call)
}

func (c *Controller) onTimeout() {
	if c.sess.State != domain.StateDialing {
		return
	}
	c.fail(&domain.Error{
		Kind: domain.KindTimeout,
		Op:   "dial",
		Err:  fmt.Errorf("no answer from %q within %s", c.sess.RemoteIdentity, c.cfg.OutgoingTimeout),
	})
}

// watchCall forwards call events of one generation to the loop.
func (c *Controller) watchCall(gen uint64, call core.CallHandle) {
	for ev := range call.Events() {
		switch ev.Kind {
		case core.CallRemoteTrack:
			track := ev.Track
			c.post(gen, func() { c.onRemoteTrack(track) }, nil)
		case core.CallError:
			err := ev.Err
			c.post(gen, func() { c.onCallEnded(err) }, nil)
		case core.CallClosed:
			c.post(gen, func() { c.onCallEnded(nil) }, nil)
			return
		}
	}
	c.post(gen, func() { c.onCallEnded(nil) }, nil)
}

func (c *Controller) onRemoteTrack(track core.Track) {
	switch c.sess.State {
	case domain.StateDialing:
		c.stopTimer()
		c.remote.Add(c.sess.RemoteEndpoint, track)
		c.sess.StartedAt = c.clock.Now()
		c.sampler.Start(c.localVideo)
		c.setState(domain.StateActive)
	case domain.StateActive:
		c.remote.Add(c.sess.RemoteEndpoint, track)
		if c.recorder.Active() {
			if err := c.recorder.AddTrack(track); err != nil {
				log.Warn().Err(err).Str("module", "orch").Msg("record late track")
			}
		}
		c.publish()
	default:
		return
	}
	log.Info().Str("module", "orch").Str("track", track.ID()).Str("kind", string(track.Kind())).Msg("remote track")
}

func (c *Controller) onCallEnded(err error) {
	switch c.sess.State {
	case domain.StateDialing:
		if err == nil {
			err = core.ErrCallClosed
		}
		c.fail(&domain.Error{Kind: domain.KindPeerError, Op: "dial", Err: err})
	case domain.StateActive:
		if err != nil {
			c.fail(&domain.Error{Kind: domain.KindPeerError, Op: "call", Err: err})
			return
		}
		log.Info().Str("module", "orch").Str("remote", c.sess.RemoteIdentity.String()).Msg("peer hung up")
		_ = c.end(nil)
	}
}

func (c *Controller) localVideo() core.LocalTrack {
	if h := c.media.Handle(); h != nil {
		return h.Video()
	}
	return nil
}

func (c *Controller) onIncoming(from domain.Peer, invite core.IncomingCall) {
	if invite == nil {
		return
	}
	if !c.sess.State.Terminal() {
		log.Info().Str("module", "orch").Str("from", from.Identity.String()).Str("state", c.sess.State.String()).Msg("busy, declining invite")
		if err := invite.Reject(); err != nil {
			log.Warn().Err(err).Str("module", "orch").Msg("decline invite")
		}
		return
	}
	c.resolver.Observe(from)
	gen := c.begin(Session{
		LocalParty:     c.cfg.Local,
		RemoteIdentity: from.Identity,
		RemoteEndpoint: from.Endpoint,
		Direction:      domain.DirectionIncoming,
	})
	c.invite = invite
	c.setState(domain.StateRingingIncoming)

	actx := c.attemptCtx
	go func() {
		select {
		case <-invite.Done():
			c.post(gen, func() {
				if c.sess.State == domain.StateRingingIncoming {
					c.invite = nil
					_ = c.reset(ErrInviteWithdrawn)
				}
			}, nil)
		case <-actx.Done():
		}
	}()
}

// AcceptCall answers the ringing invite. If media cannot be acquired the
// invite keeps ringing and the error is MediaUnavailable.
func (c *Controller) AcceptCall(ctx context.Context) (bool, error) {
	reply := make(chan error, 1)
	if err := c.exec(ctx, func() { c.acceptCall(reply) }); err != nil {
		return false, err
	}
	select {
	case err := <-reply:
		return err == nil, err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Controller) acceptCall(reply chan error) {
	if c.sess.State != domain.StateRingingIncoming {
		reply <- ErrNotRinging
		return
	}
	if c.acceptReply != nil {
		reply <- ErrAcceptPending
		return
	}
	c.acceptReply = reply
	gen, actx, invite := c.gen, c.attemptCtx, c.invite
	go func() {
		h, err := c.media.Acquire(actx)
		if err != nil {
			c.post(gen, func() { c.onAcceptFailed(err) }, nil)
			return
		}
		call, err := invite.Answer(actx, h)
		c.post(gen, func() { c.onAnswered(gen, call, err) }, func() {
			if call != nil {
				_ = call.Close()
			}
		})
	}()
}

func (c *Controller) onAcceptFailed(err error) {
	err = domain.Wrap(domain.KindMediaUnavailable, "accept", err)
	log.Warn().Err(err).Str("module", "orch").Msg("accept failed, still ringing")
	if c.acceptReply != nil {
		c.acceptReply <- err
		c.acceptReply = nil
	}
	c.publish()
}

func (c *Controller) onAnswered(gen uint64, call core.CallHandle, err error) {
	if err != nil {
		c.fail(domain.Wrap(domain.KindPeerError, "answer", err))
		return
	}
	c.invite = nil
	c.call = call
	c.sess.StartedAt = c.clock.Now()
	c.sampler.Start(c.localVideo)
	c.setState(domain.StateActive)
	if c.acceptReply != nil {
		c.acceptReply <- nil
		c.acceptReply = nil
	}
	go c.watchCall(gen, call)
}

// RejectCall declines the ringing invite.
func (c *Controller) RejectCall(ctx context.Context) error {
	var err error
	if xerr := c.exec(ctx, func() {
		if c.sess.State != domain.StateRingingIncoming {
			err = ErrNotRinging
			return
		}
		log.Info().Str("module", "orch").Str("from", c.sess.RemoteIdentity.String()).Msg("invite rejected")
		err = c.reset(ErrCallEnded)
	}); xerr != nil {
		return xerr
	}
	return err
}

// EndCall ends whatever non-terminal session exists. Teardown failures are
// returned joined, but the session is Idle either way.
func (c *Controller) EndCall(ctx context.Context) error {
	var err error
	if xerr := c.exec(ctx, func() {
		switch c.sess.State {
		case domain.StateIdle, domain.StateFailed:
			return
		case domain.StateRingingIncoming:
			err = c.reset(ErrCallEnded)
		default:
			err = c.end(ErrCallEnded)
		}
	}); xerr != nil {
		return xerr
	}
	return err
}
