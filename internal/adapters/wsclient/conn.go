package wsclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/peercall/internal/adapters/rtc"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/dkeye/peercall/internal/proto"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Conn is one registered signaling socket. Only the read pump emits on
// events, and it closes the channel on exit.
type Conn struct {
	client   *Client
	ws       *websocket.Conn
	endpoint domain.EndpointID
	send     chan []byte
	events   chan core.ConnEvent

	ctx       context.Context
	cancel    context.CancelFunc
	closing   atomic.Bool
	closeOnce sync.Once

	mu      sync.Mutex
	pending map[string]chan proto.Envelope
	calls   map[string]*rtc.Connection
	invites map[string]*invite
}

func newConn(client *Client, ws *websocket.Conn, endpoint domain.EndpointID) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		client:   client,
		ws:       ws,
		endpoint: endpoint,
		send:     make(chan []byte, sendQueue),
		events:   make(chan core.ConnEvent, eventBuffer),
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]chan proto.Envelope),
		calls:    make(map[string]*rtc.Connection),
		invites:  make(map[string]*invite),
	}
}

func (c *Conn) Endpoint() domain.EndpointID   { return c.endpoint }
func (c *Conn) Events() <-chan core.ConnEvent { return c.events }

func (c *Conn) start() {
	go c.writePump()
	go c.readPump()
}

// Close unregisters from the broker. Calls already established keep their
// media path.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
	return nil
}

func (c *Conn) Discover(ctx context.Context, identity domain.UserIdentity) ([]domain.EndpointID, error) {
	env, err := c.request(ctx, proto.Envelope{Type: proto.TypeDiscover, Identity: identity})
	if err != nil {
		return nil, err
	}
	return env.Endpoints, nil
}

func (c *Conn) Probe(ctx context.Context, endpoint domain.EndpointID) (bool, error) {
	env, err := c.request(ctx, proto.Envelope{Type: proto.TypeProbe, Endpoint: endpoint})
	if err != nil {
		return false, err
	}
	return env.Online, nil
}

// request sends env under a fresh id and waits for the reply carrying it.
func (c *Conn) request(ctx context.Context, env proto.Envelope) (proto.Envelope, error) {
	env.ID = uuid.NewString()
	reply := make(chan proto.Envelope, 1)
	c.mu.Lock()
	c.pending[env.ID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, env.ID)
		c.mu.Unlock()
	}()

	if err := c.trySend(env); err != nil {
		return proto.Envelope{}, err
	}
	select {
	case res := <-reply:
		if err := res.Err(); err != nil {
			return proto.Envelope{}, err
		}
		return res, nil
	case <-ctx.Done():
		return proto.Envelope{}, ctx.Err()
	case <-c.ctx.Done():
		return proto.Envelope{}, core.ErrConnectionClosed
	}
}

func (c *Conn) trySend(env proto.Envelope) error {
	if c.ctx.Err() != nil {
		return core.ErrConnectionClosed
	}
	data, err := proto.Encode(env)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return core.ErrConnectionClosed
	default:
		return core.ErrBackpressure
	}
}

func (c *Conn) emit(ev core.ConnEvent) {
	select {
	case c.events <- ev:
	default:
		log.Warn().Str("module", "wsclient").Str("event", ev.Kind.String()).Msg("event dropped, consumer too slow")
	}
}

func (c *Conn) pingPeriod() time.Duration {
	if c.client.PingPeriod > 0 {
		return c.client.PingPeriod
	}
	return defaultPingPeriod
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "wsclient").Msg("writePump ping")
				_ = c.ws.Close()
				return
			}
		case data := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				_ = c.ws.Close()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "wsclient").Msg("writePump write error")
				_ = c.ws.Close()
				return
			}
		}
	}
}

func (c *Conn) readPump() {
	wait := c.pingPeriod() * 2
	_ = c.ws.SetReadDeadline(time.Now().Add(wait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wait))
	})

	var readErr error
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(wait))
		env, err := proto.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "wsclient").Msg("bad frame")
			continue
		}
		c.route(env)
	}
	c.finish(readErr)
}

// finish runs once, on the read pump, after the socket is gone.
func (c *Conn) finish(readErr error) {
	c.cancel()
	_ = c.ws.Close()

	c.mu.Lock()
	invites := c.invites
	c.invites = make(map[string]*invite)
	c.mu.Unlock()
	for _, inv := range invites {
		inv.withdraw()
	}

	if !c.closing.Load() {
		log.Warn().Err(readErr).Str("module", "wsclient").Str("endpoint", c.endpoint.String()).Msg("connection dropped")
		c.emit(core.ConnEvent{Kind: core.ConnError, Err: readErr})
	} else {
		log.Info().Str("module", "wsclient").Str("endpoint", c.endpoint.String()).Msg("connection closed")
	}
	c.emit(core.ConnEvent{Kind: core.ConnClosed})
	close(c.events)
}

func (c *Conn) route(env proto.Envelope) {
	switch env.Type {
	case proto.TypeAnnounce:
		if env.From != nil {
			c.emit(core.ConnEvent{Kind: core.ConnAnnounce, Peer: *env.From})
		}
	case proto.TypeLeave:
		if env.From != nil {
			c.peerLeft(*env.From)
		}
	case proto.TypeDiscovered, proto.TypeProbed, proto.TypePong:
		c.resolve(env)
	case proto.TypeError:
		c.remoteError(env)
	case proto.TypeInvite:
		c.incoming(env)
	case proto.TypeAnswer:
		if call := c.call(env.Call); call != nil {
			if err := call.ApplyAnswer(env.SDP); err != nil {
				call.Terminate(err)
			}
		}
	case proto.TypeReject:
		if call := c.call(env.Call); call != nil {
			call.Terminate(ErrRejected)
		}
	case proto.TypeHangup:
		if call := c.call(env.Call); call != nil {
			call.Terminate(nil)
			return
		}
		if inv := c.takeInvite(env.Call); inv != nil {
			inv.withdraw()
		}
	default:
		log.Debug().Str("module", "wsclient").Str("type", env.Type).Msg("unhandled frame")
	}
}

func (c *Conn) resolve(env proto.Envelope) bool {
	c.mu.Lock()
	reply, ok := c.pending[env.ID]
	c.mu.Unlock()
	if ok {
		select {
		case reply <- env:
		default:
		}
	}
	return ok
}

func (c *Conn) remoteError(env proto.Envelope) {
	if env.ID != "" && c.resolve(env) {
		return
	}
	if call := c.call(env.Call); call != nil {
		call.Terminate(env.Err())
		return
	}
	log.Warn().Str("module", "wsclient").Str("code", env.Code).Str("error", env.Error).Msg("broker error")
	c.emit(core.ConnEvent{Kind: core.ConnError, Err: env.Err()})
}

func (c *Conn) peerLeft(peer domain.Peer) {
	c.mu.Lock()
	var calls []*rtc.Connection
	for _, call := range c.calls {
		if call.Remote().Endpoint == peer.Endpoint {
			calls = append(calls, call)
		}
	}
	var invites []*invite
	for id, inv := range c.invites {
		if inv.from.Endpoint == peer.Endpoint {
			invites = append(invites, inv)
			delete(c.invites, id)
		}
	}
	c.mu.Unlock()

	for _, inv := range invites {
		inv.withdraw()
	}
	for _, call := range calls {
		call.Terminate(ErrPeerLeft)
	}
	c.emit(core.ConnEvent{Kind: core.ConnLeave, Peer: peer})
}

func (c *Conn) call(id string) *rtc.Connection {
	if id == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[id]
}

// track registers a call and removes it when it ends. A locally ended call
// tells the remote side.
func (c *Conn) track(call *rtc.Connection) {
	c.mu.Lock()
	c.calls[call.ID()] = call
	c.mu.Unlock()
	call.OnClosed(func(local bool) {
		c.mu.Lock()
		delete(c.calls, call.ID())
		c.mu.Unlock()
		if !local {
			return
		}
		err := c.trySend(proto.Envelope{Type: proto.TypeHangup, Call: call.ID(), To: call.Remote().Endpoint})
		if err != nil && !errors.Is(err, core.ErrConnectionClosed) {
			log.Warn().Err(err).Str("module", "wsclient").Str("call", call.ID()).Msg("send hangup")
		}
	})
}
