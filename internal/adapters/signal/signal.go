// Package signal serves the broker's WebSocket endpoint.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/peercall/internal/broker"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendQueue         = 32
	defaultPingPeriod = 54 * time.Second
)

type SignalWSController struct {
	Broker     *broker.Broker
	Limiter    *InviteRateLimiter
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewSignalWSController(b *broker.Broker, limiter *InviteRateLimiter, readLimit int64, pingPeriod time.Duration) *SignalWSController {
	if pingPeriod <= 0 {
		pingPeriod = defaultPingPeriod
	}
	return &SignalWSController{
		Broker:     b,
		Limiter:    limiter,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// wsPeer is the per-socket state, touched only by its read pump.
type wsPeer struct {
	conn       *WsSignalConn
	cancel     context.CancelFunc
	peer       domain.Peer
	registered bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	log.Info().Str("module", "signal").Str("remote", c.ClientIP()).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, sendQueue),
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &wsPeer{conn: conn, cancel: cancel}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, p)
}
