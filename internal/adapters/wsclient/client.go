// Package wsclient speaks the broker protocol over a WebSocket and carries
// calls as WebRTC peer connections.
package wsclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/proto"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const (
	defaultPingPeriod = 30 * time.Second
	handshakeTimeout  = 10 * time.Second
	writeWait         = 5 * time.Second
	sendQueue         = 64
	eventBuffer       = 64
)

var (
	ErrRejected = errors.New("call rejected by peer")
	ErrPeerLeft = errors.New("peer left")
)

// Client dials the broker. It implements core.Signaling.
type Client struct {
	URL        string
	Dialer     *websocket.Dialer
	API        *webrtc.API
	RTC        webrtc.Configuration
	PingPeriod time.Duration
}

func New(url string, api *webrtc.API, rtcCfg webrtc.Configuration) *Client {
	return &Client{
		URL:        url,
		Dialer:     websocket.DefaultDialer,
		API:        api,
		RTC:        rtcCfg,
		PingPeriod: defaultPingPeriod,
	}
}

// Dial registers req.Endpoint with the broker and returns once welcomed.
// A taken endpoint id yields core.ErrEndpointInUse.
func (c *Client) Dial(ctx context.Context, req core.DialRequest) (core.Connection, error) {
	ws, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	welcome, err := handshake(ctx, ws, proto.Envelope{
		Type:     proto.TypeHello,
		ID:       uuid.NewString(),
		Endpoint: req.Endpoint,
		Identity: req.Identity,
		Context:  req.Context,
	})
	if err != nil {
		_ = ws.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if !stop() {
		return nil, ctx.Err()
	}

	conn := newConn(c, ws, welcome.Endpoint)
	for _, p := range welcome.Peers {
		conn.emit(core.ConnEvent{Kind: core.ConnAnnounce, Peer: p})
	}
	conn.start()
	log.Info().Str("module", "wsclient").Str("endpoint", welcome.Endpoint.String()).Int("peers", len(welcome.Peers)).Msg("welcomed")
	return conn, nil
}

func handshake(ctx context.Context, ws *websocket.Conn, hello proto.Envelope) (proto.Envelope, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(handshakeTimeout)
	}
	_ = ws.SetWriteDeadline(deadline)
	_ = ws.SetReadDeadline(deadline)

	data, err := proto.Encode(hello)
	if err != nil {
		return proto.Envelope{}, err
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return proto.Envelope{}, fmt.Errorf("send hello: %w", err)
	}
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return proto.Envelope{}, fmt.Errorf("await welcome: %w", err)
		}
		env, err := proto.Decode(data)
		if err != nil {
			return proto.Envelope{}, err
		}
		switch {
		case env.Type == proto.TypeWelcome && env.ID == hello.ID:
			_ = ws.SetWriteDeadline(time.Time{})
			return env, nil
		case env.Type == proto.TypeError && env.Code == proto.CodeIDInUse:
			return proto.Envelope{}, core.ErrEndpointInUse
		case env.Type == proto.TypeError:
			return proto.Envelope{}, env.Err()
		default:
			log.Debug().Str("module", "wsclient").Str("type", env.Type).Msg("ignored before welcome")
		}
	}
}
