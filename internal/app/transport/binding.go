// Package transport owns the single signaling connection of a client and
// recovers it after unexpected drops.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/dkeye/peercall/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

var errSuperseded = errors.New("connect superseded by disconnect")

type Config struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	DialTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
}

// Binding keeps at most one live connection and at most one connect episode
// in flight. All state changes happen under mu; epoch invalidates pumps and
// episodes that belong to a connection the caller already dropped.
type Binding struct {
	sig     core.Signaling
	cfg     Config
	clock   clock.Clock
	metrics *metrics.Client
	events  chan Event
	group   singleflight.Group

	mu         sync.Mutex
	state      State
	epoch      uint64
	conn       core.Connection
	local      domain.UserIdentity
	sctx       domain.SessionContext
	derivedUse bool
	retired    map[domain.EndpointID]struct{}
	cancel     context.CancelFunc
	lost       error
}

func New(sig core.Signaling, cfg Config, clk clock.Clock, m *metrics.Client) *Binding {
	cfg.setDefaults()
	if clk == nil {
		clk = clock.New()
	}
	return &Binding{
		sig:     sig,
		cfg:     cfg,
		clock:   clk,
		metrics: m,
		events:  make(chan Event, 256),
		retired: make(map[domain.EndpointID]struct{}),
	}
}

func (b *Binding) Events() <-chan Event { return b.events }

func (b *Binding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Current returns the live connection or nil.
func (b *Binding) Current() core.Connection {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateConnected {
		return nil
	}
	return b.conn
}

// Retired reports whether endpoint was used once and must not be dialed again.
func (b *Binding) Retired(endpoint domain.EndpointID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.retired[endpoint]
	return ok
}

// Connect returns the live connection, starting a connect episode if needed.
// Calls arriving while an episode runs wait for it instead of dialing again.
// ctx bounds only this caller's wait; the episode runs until it settles or
// Disconnect cancels it. Once the dial budget is exhausted every Connect
// fails with the same ConnectionLost error until Disconnect resets the binding.
func (b *Binding) Connect(ctx context.Context, local domain.UserIdentity, sctx domain.SessionContext) (core.Connection, error) {
	b.mu.Lock()
	if b.lost != nil {
		err := b.lost
		b.mu.Unlock()
		return nil, err
	}
	if b.state == StateConnected && b.local == local && b.sctx == sctx {
		conn := b.conn
		b.mu.Unlock()
		return conn, nil
	}
	if b.state == StateDisconnected {
		if b.sctx != sctx || b.local != local {
			b.derivedUse = false
		}
		b.local, b.sctx = local, sctx
	}
	b.mu.Unlock()

	ch := b.group.DoChan("connect", func() (any, error) {
		return b.episode(context.Background(), false, 0)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(core.Connection), nil
	case <-ctx.Done():
		return nil, &domain.Error{Kind: domain.KindConnectionLost, Op: "connect", Err: ctx.Err()}
	}
}

// Disconnect drops the connection and cancels any pending backoff. It never
// triggers a reconnect. It also clears a lost state so the next Connect
// starts over.
func (b *Binding) Disconnect() {
	b.mu.Lock()
	b.epoch++
	b.lost = nil
	conn := b.conn
	b.conn = nil
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	prev := b.state
	b.state = StateDisconnected
	if conn != nil {
		b.retired[conn.Endpoint()] = struct{}{}
	}
	b.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Str("module", "transport").Msg("close connection")
		}
	}
	if prev != StateDisconnected {
		log.Info().Str("module", "transport").Str("from", prev.String()).Msg("disconnected")
		b.emit(Event{Kind: EventClosed})
	}
}

// episode dials up to MaxAttempts times. A reconnect episode only runs if
// the drop that scheduled it (dropEpoch) is still the latest event.
func (b *Binding) episode(parent context.Context, reconnect bool, dropEpoch uint64) (core.Connection, error) {
	b.mu.Lock()
	if b.state == StateConnected {
		conn := b.conn
		b.mu.Unlock()
		return conn, nil
	}
	if reconnect && (b.epoch != dropEpoch || b.state != StateReconnecting) {
		b.mu.Unlock()
		return nil, &domain.Error{Kind: domain.KindConnectionLost, Op: "reconnect", Err: errSuperseded}
	}
	if !reconnect {
		b.state = StateConnecting
	}
	epoch := b.epoch
	ctx, cancel := context.WithCancel(parent)
	b.cancel = cancel
	local, sctx := b.local, b.sctx
	b.mu.Unlock()
	defer cancel()

	var lastErr error
	for attempt := range b.cfg.MaxAttempts {
		if reconnect || attempt > 0 {
			delay := backoffDelay(b.cfg.BaseDelay, b.cfg.MaxDelay, b.delayIndex(reconnect, attempt))
			if reconnect {
				b.emit(Event{Kind: EventReconnecting, Attempt: attempt + 1})
			}
			log.Info().Str("module", "transport").Int("attempt", attempt+1).Dur("delay", delay).Msg("backing off")
			if err := b.sleep(ctx, delay); err != nil {
				return nil, b.abandon(epoch, err)
			}
		}
		if !b.current(epoch) {
			return nil, b.abandon(epoch, errSuperseded)
		}

		endpoint := b.nextEndpoint()
		b.metrics.DialAttempt()
		conn, err := b.dial(ctx, core.DialRequest{Endpoint: endpoint, Identity: local, Context: sctx})
		if err != nil {
			b.retire(endpoint)
			lastErr = err
			log.Warn().Err(err).Str("module", "transport").Str("endpoint", endpoint.String()).Int("attempt", attempt+1).Msg("dial failed")
			if ctx.Err() != nil {
				return nil, b.abandon(epoch, ctx.Err())
			}
			continue
		}
		if !b.adopt(epoch, conn) {
			_ = conn.Close()
			return nil, b.abandon(epoch, errSuperseded)
		}
		return conn, nil
	}

	err := &domain.Error{Kind: domain.KindConnectionLost, Op: "connect", Err: fmt.Errorf("%d attempts exhausted: %w", b.cfg.MaxAttempts, lastErr)}
	b.mu.Lock()
	if b.epoch == epoch {
		b.state = StateDisconnected
		b.cancel = nil
		b.lost = err
	}
	b.mu.Unlock()
	log.Error().Err(err).Str("module", "transport").Msg("connection lost")
	b.emit(Event{Kind: EventLost, Err: err})
	return nil, err
}

// delayIndex: a reconnect waits before every dial, an initial connect only
// between dials.
func (b *Binding) delayIndex(reconnect bool, attempt int) int {
	if reconnect {
		return attempt
	}
	return attempt - 1
}

func (b *Binding) dial(ctx context.Context, req core.DialRequest) (core.Connection, error) {
	dctx, cancel := b.clock.WithTimeout(ctx, b.cfg.DialTimeout)
	defer cancel()
	return b.sig.Dial(dctx, req)
}

func (b *Binding) sleep(ctx context.Context, d time.Duration) error {
	t := b.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Binding) current(epoch uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.epoch == epoch
}

func (b *Binding) abandon(epoch uint64, cause error) error {
	b.mu.Lock()
	if b.epoch == epoch {
		b.state = StateDisconnected
		b.cancel = nil
	}
	b.mu.Unlock()
	return &domain.Error{Kind: domain.KindConnectionLost, Op: "connect", Err: cause}
}

// nextEndpoint picks the derived rendezvous id for the first dial in a
// context, a fresh random id otherwise. Retired ids are never returned.
func (b *Binding) nextEndpoint() domain.EndpointID {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.derivedUse {
		b.derivedUse = true
		id := domain.DeriveEndpoint(b.local, b.sctx)
		if _, used := b.retired[id]; !used {
			return id
		}
	}
	for {
		id := domain.NewEndpointID()
		if _, used := b.retired[id]; !used {
			return id
		}
	}
}

func (b *Binding) retire(endpoint domain.EndpointID) {
	b.mu.Lock()
	b.retired[endpoint] = struct{}{}
	b.mu.Unlock()
}

func (b *Binding) adopt(epoch uint64, conn core.Connection) bool {
	b.mu.Lock()
	if b.epoch != epoch {
		b.mu.Unlock()
		return false
	}
	b.conn = conn
	b.state = StateConnected
	b.cancel = nil
	b.mu.Unlock()

	log.Info().Str("module", "transport").Str("endpoint", conn.Endpoint().String()).Msg("connected")
	b.emit(Event{Kind: EventOpened, Endpoint: conn.Endpoint()})
	go b.pump(epoch, conn)
	return true
}

// pump forwards connection events until the connection ends, then starts a
// reconnect episode unless the drop was requested.
func (b *Binding) pump(epoch uint64, conn core.Connection) {
	for ev := range conn.Events() {
		switch ev.Kind {
		case core.ConnIncoming:
			b.emit(Event{Kind: EventIncoming, Peer: ev.Peer, Invite: ev.Invite})
		case core.ConnAnnounce:
			b.emit(Event{Kind: EventPeerAnnounced, Peer: ev.Peer})
		case core.ConnLeave:
			b.emit(Event{Kind: EventPeerLeft, Peer: ev.Peer})
		case core.ConnError:
			b.emit(Event{Kind: EventError, Err: &domain.Error{Kind: domain.KindPeerError, Op: "signal", Err: ev.Err}})
		case core.ConnClosed:
		}
	}

	b.mu.Lock()
	if b.epoch != epoch || b.conn != conn {
		b.mu.Unlock()
		return
	}
	b.retired[conn.Endpoint()] = struct{}{}
	b.conn = nil
	b.state = StateReconnecting
	b.mu.Unlock()

	log.Warn().Str("module", "transport").Str("endpoint", conn.Endpoint().String()).Msg("connection dropped, reconnecting")
	go func() {
		_, _, _ = b.group.Do("connect", func() (any, error) {
			return b.episode(context.Background(), true, epoch)
		})
	}()
}

func (b *Binding) emit(ev Event) {
	select {
	case b.events <- ev:
	default:
		log.Warn().Str("module", "transport").Str("event", ev.Kind.String()).Msg("event dropped, consumer too slow")
	}
}
