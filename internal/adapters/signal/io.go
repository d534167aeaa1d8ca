package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/proto"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) pongWait() time.Duration {
	return ctl.PingPeriod * 10 / 9
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, p *wsPeer) {
	defer func() {
		if p.registered {
			ctl.Broker.Unregister(p.peer.Endpoint, p.conn)
		}
		log.Info().Str("module", "signal").Str("endpoint", p.peer.Endpoint.String()).Msg("readPump closing")
		p.cancel()
		p.conn.Close()
	}()

	c := p.conn.conn
	if ctl.ReadLimit > 0 {
		c.SetReadLimit(ctl.ReadLimit)
	}
	_ = c.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("endpoint", p.peer.Endpoint.String()).Msg("readPump read error")
			}
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(ctl.pongWait()))
		ctl.handleSignal(p, data)
	}
}

func (ctl *SignalWSController) handleSignal(p *wsPeer, data []byte) {
	env, err := proto.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendJSON(p.conn, proto.Errorf("", proto.CodeBadPayload, "%v", err))
		return
	}

	switch env.Type {
	case proto.TypeHello:
		ctl.handleHello(p, env)
		return
	case proto.TypePing:
		ctl.handlePing(p.conn, env)
		return
	}
	if !p.registered {
		ctl.sendJSON(p.conn, proto.Errorf(env.ID, proto.CodeNotRegistered, "send hello first"))
		return
	}

	switch env.Type {
	case proto.TypeDiscover:
		ctl.handleDiscover(p, env)
	case proto.TypeProbe:
		ctl.handleProbe(p, env)
	case proto.TypeInvite:
		ctl.handleInvite(p, env)
	case proto.TypeAnswer, proto.TypeReject, proto.TypeHangup:
		ctl.handleRelay(p, env)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, env proto.Envelope) {
	b, err := proto.Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil && !errors.Is(err, core.ErrBackpressure) {
		log.Debug().Err(err).Str("module", "signal").Msg("sendJSON")
	}
}
