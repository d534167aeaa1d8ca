// Package orch is the session controller: a single goroutine owns the call
// state and every other component reports back to it through events.
package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/app/diag"
	"github.com/dkeye/peercall/internal/app/record"
	"github.com/dkeye/peercall/internal/app/transport"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/dkeye/peercall/internal/metrics"
	"github.com/rs/zerolog/log"
)

const DefaultOutgoingTimeout = 60 * time.Second

var (
	ErrStopped         = errors.New("controller stopped")
	ErrNotRinging      = errors.New("no incoming call")
	ErrNotActive       = errors.New("call not active")
	ErrAcceptPending   = errors.New("accept already in progress")
	ErrCallEnded       = errors.New("call ended")
	ErrInviteWithdrawn = errors.New("caller hung up")
)

type Config struct {
	Local           domain.UserIdentity
	Context         domain.SessionContext
	OutgoingTimeout time.Duration
	// ArtifactSink receives recordings cut short by the end of a call.
	ArtifactSink func(*record.Artifact)
}

type Deps struct {
	Resolver Resolver
	Binding  Binding
	Media    Media
	Sampler  Sampler
	Recorder Recorder
	Clock    clock.Clock
	Metrics  *metrics.Client
}

type Controller struct {
	cfg      Config
	resolver Resolver
	binding  Binding
	media    Media
	sampler  Sampler
	recorder Recorder
	clock    clock.Clock
	metrics  *metrics.Client

	ops     chan func()
	stopped chan struct{}
	remote  *RemoteTrackSet
	snap    atomic.Pointer[Snapshot]

	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int

	// owned by the run loop
	lifetime    context.Context
	sess        Session
	gen         uint64
	attemptCtx  context.Context
	attempt     context.CancelFunc
	timer       *clock.Timer
	call        core.CallHandle
	invite      core.IncomingCall
	startReply  chan error
	acceptReply chan error
}

func New(cfg Config, deps Deps) *Controller {
	if cfg.OutgoingTimeout <= 0 {
		cfg.OutgoingTimeout = DefaultOutgoingTimeout
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	c := &Controller{
		cfg:      cfg,
		resolver: deps.Resolver,
		binding:  deps.Binding,
		media:    deps.Media,
		sampler:  deps.Sampler,
		recorder: deps.Recorder,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		ops:      make(chan func()),
		stopped:  make(chan struct{}),
		remote:   NewRemoteTrackSet(),
		subs:     make(map[int]chan Snapshot),
		sess:     Session{LocalParty: cfg.Local, State: domain.StateIdle},
	}
	c.snap.Store(&Snapshot{Session: c.sess, VideoEnabled: true})
	return c
}

// Run owns the session until ctx ends. Every exported method blocks until
// Run is serving.
func (c *Controller) Run(ctx context.Context) error {
	c.lifetime = ctx
	defer close(c.stopped)
	events := c.binding.Events()
	log.Info().Str("module", "orch").Str("local", c.cfg.Local.String()).Str("context", c.cfg.Context.String()).Msg("controller running")
	for {
		select {
		case <-ctx.Done():
			if !c.sess.State.Terminal() {
				_ = c.end(ErrStopped)
			}
			c.binding.Disconnect()
			log.Info().Str("module", "orch").Msg("controller stopped")
			return ctx.Err()
		case op := <-c.ops:
			op()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.onBinding(ev)
		}
	}
}

// Connect brings the local endpoint online so it can be reached.
func (c *Controller) Connect(ctx context.Context) error {
	if _, err := c.binding.Connect(ctx, c.cfg.Local, c.cfg.Context); err != nil {
		return domain.Wrap(domain.KindConnectionLost, "connect", err)
	}
	return nil
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() Snapshot { return *c.snap.Load() }

// Subscribe delivers every published snapshot, starting with the current one.
// Slow subscribers miss intermediate snapshots.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	ch <- c.Snapshot()
	c.subsMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.subsMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
		})
	}
}

// LocalStream returns the borrowed local media or nil.
func (c *Controller) LocalStream() core.LocalStream {
	if h := c.media.Handle(); h != nil {
		return h
	}
	return nil
}

func (c *Controller) RemoteTracks() []core.Track { return c.remote.All() }

func (c *Controller) Diagnostics() (diag.Snapshot, bool) { return c.sampler.Latest() }

// exec runs fn on the run loop and waits for it.
func (c *Controller) exec(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	op := func() {
		defer close(done)
		fn()
	}
	select {
	case c.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}
	<-done
	return nil
}

// post hands the result of async work to the run loop. apply only runs if
// the session that started the work is still current; discard runs otherwise.
func (c *Controller) post(gen uint64, apply func(), discard func()) {
	op := func() {
		if gen != c.gen {
			if discard != nil {
				discard()
			}
			return
		}
		apply()
	}
	select {
	case c.ops <- op:
	case <-c.stopped:
		if discard != nil {
			discard()
		}
	}
}

// begin opens a new session generation.
func (c *Controller) begin(s Session) uint64 {
	c.gen++
	c.sess = s
	c.attemptCtx, c.attempt = context.WithCancel(c.lifetime)
	return c.gen
}

func (c *Controller) setState(s domain.State) {
	prev := c.sess.State
	c.sess.State = s
	c.metrics.Transition(s.String())
	log.Info().Str("module", "orch").Str("from", prev.String()).Str("to", s.String()).
		Str("remote", c.sess.RemoteIdentity.String()).Uint64("gen", c.gen).Msg("state")
	c.publish()
}

func (c *Controller) publish() {
	s := Snapshot{
		Session:       c.sess,
		Muted:         c.media.Muted(),
		VideoEnabled:  c.media.VideoEnabled(),
		ScreenSharing: c.media.ScreenSharing(),
		Recording:     c.recorder.Active(),
		RemoteTracks:  c.remote.Len(),
	}
	c.snap.Store(&s)
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (c *Controller) onBinding(ev transport.Event) {
	switch ev.Kind {
	case transport.EventOpened:
		c.resolver.Observe(domain.Peer{Identity: c.cfg.Local, Endpoint: ev.Endpoint})
	case transport.EventPeerAnnounced:
		c.resolver.Observe(ev.Peer)
	case transport.EventPeerLeft:
		c.resolver.Forget(ev.Peer.Endpoint)
		if c.sess.State == domain.StateRingingIncoming && ev.Peer.Endpoint == c.sess.RemoteEndpoint {
			_ = c.reset(ErrInviteWithdrawn)
		}
	case transport.EventIncoming:
		c.onIncoming(ev.Peer, ev.Invite)
	case transport.EventReconnecting:
		log.Warn().Str("module", "orch").Int("attempt", ev.Attempt).Msg("signaling reconnecting")
	case transport.EventError:
		log.Warn().Err(ev.Err).Str("module", "orch").Msg("signaling error")
	case transport.EventLost:
		if !c.sess.State.Terminal() {
			c.fail(domain.Wrap(domain.KindConnectionLost, "signaling", ev.Err))
		}
	case transport.EventClosed:
		log.Debug().Str("module", "orch").Msg("signaling closed")
	}
}

// fail ends the session, reports err through Failed and returns to Idle.
func (c *Controller) fail(err error) {
	log.Warn().Err(err).Str("module", "orch").Str("kind", domain.KindOf(err).String()).Msg("session failed")
	c.metrics.Failure(domain.KindOf(err).String())
	if terr := c.teardown(); terr != nil {
		log.Warn().Err(terr).Str("module", "orch").Msg("teardown after failure")
	}
	c.sess.LastError = err
	c.settle(err)
	c.setState(domain.StateFailed)
	c.setState(domain.StateIdle)
}

// end moves through Ending to Idle.
func (c *Controller) end(reason error) error {
	c.setState(domain.StateEnding)
	return c.reset(reason)
}

func (c *Controller) reset(reason error) error {
	err := c.teardown()
	c.settle(reason)
	c.setState(domain.StateIdle)
	return err
}

func (c *Controller) settle(err error) {
	if err == nil {
		err = ErrCallEnded
	}
	if c.startReply != nil {
		c.startReply <- err
		c.startReply = nil
	}
	if c.acceptReply != nil {
		c.acceptReply <- err
		c.acceptReply = nil
	}
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// teardown releases every session resource. Each step runs even if an
// earlier one errors or panics.
func (c *Controller) teardown() error {
	var errs []error
	step := func(name string, fn func() error) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%s: panic: %v", name, r)
				log.Error().Err(err).Str("module", "orch").Msg("teardown step panicked")
				errs = append(errs, err)
			}
		}()
		if err := fn(); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("step", name).Msg("teardown step failed")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	step("release media", c.media.Release)
	step("clear remote tracks", func() error {
		c.remote.Clear()
		return nil
	})
	step("stop sampler", func() error {
		c.sampler.Stop()
		return nil
	})
	step("stop recorder", func() error {
		if art := c.recorder.ForceStop(); art != nil && c.cfg.ArtifactSink != nil {
			c.cfg.ArtifactSink(art)
		}
		return nil
	})
	step("cancel timeout", func() error {
		c.stopTimer()
		return nil
	})
	step("close call", func() error {
		call := c.call
		c.call = nil
		if call == nil {
			return nil
		}
		return call.Close()
	})
	step("decline invite", func() error {
		inv := c.invite
		c.invite = nil
		if inv == nil {
			return nil
		}
		return inv.Reject()
	})
	step("cancel attempt", func() error {
		if c.attempt != nil {
			c.attempt()
			c.attempt = nil
		}
		return nil
	})

	c.gen++
	return errors.Join(errs...)
}
