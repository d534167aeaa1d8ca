// Package rtc wraps a pion PeerConnection as one call with a remote endpoint.
package rtc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/peercall/internal/app/fanout"
	"github.com/dkeye/peercall/internal/config"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrICEFailed = errors.New("ice connection failed")
	ErrNoSender  = errors.New("no sender for track kind")
)

const eventBuffer = 16

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// Configuration maps configured ICE servers, falling back to the public STUN
// server.
func Configuration(servers []config.ICEServer) webrtc.Configuration {
	if len(servers) == 0 {
		return DefaultWebRTCConfig()
	}
	cfg := webrtc.Configuration{}
	for _, s := range servers {
		ice := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			ice.Credential = s.Credential
		}
		cfg.ICEServers = append(cfg.ICEServers, ice)
	}
	return cfg
}

// NewAPI builds a pion API with the default interceptors (NACK, RTCP reports,
// TWCC). register fills the media engine; nil registers pion's default codecs.
func NewAPI(register func(*webrtc.MediaEngine) error) (*webrtc.API, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if register == nil {
		register = (*webrtc.MediaEngine).RegisterDefaultCodecs
	}
	if err := register(mediaEngine); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	interceptorRegistry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptorRegistry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	se := webrtc.SettingEngine{}
	se.SetICETimeouts(30*time.Second, 120*time.Second, 2*time.Second)

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(interceptorRegistry),
		webrtc.WithSettingEngine(se),
	), nil
}

// Connection is a core.CallHandle backed by a PeerConnection.
type Connection struct {
	pc     *webrtc.PeerConnection
	id     string
	remote domain.Peer
	relays *fanout.RelayManager

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	senders  map[core.TrackKind]*webrtc.RTPSender
	video    []*remoteTrack
	events   chan core.CallEvent
	done     bool
	onClosed func(local bool)
}

func NewConnection(api *webrtc.API, cfg webrtc.Configuration, id string, remote domain.Peer) (*Connection, error) {
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		pc:      pc,
		id:      id,
		remote:  remote,
		relays:  fanout.NewRelayManager(),
		ctx:     ctx,
		cancel:  cancel,
		senders: make(map[core.TrackKind]*webrtc.RTPSender),
		events:  make(chan core.CallEvent, eventBuffer),
	}, nil
}

func (c *Connection) logger() *zerolog.Logger {
	l := log.With().Str("module", "rtc").Str("call", c.id).Str("remote", c.remote.Endpoint.String()).Logger()
	return &l
}

// Start installs the PeerConnection handlers. Call before negotiating.
func (c *Connection) Start() {
	logger := c.logger()

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		logger.Debug().Str("ice_state", s.String()).Msg("ICE state")
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		logger.Info().Str("peer_connection_state", s.String()).Msg("Peer state")
		switch s {
		case webrtc.PeerConnectionStateFailed:
			go c.terminate(ErrICEFailed, false)
		case webrtc.PeerConnectionStateClosed:
			go c.terminate(nil, false)
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		logger.Info().
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Str("codec", track.Codec().MimeType).
			Msg("OnTrack received")
		rt := &remoteTrack{track: track, relays: c.relays}
		c.relays.StartRelay(c.ctx, rt.ID(), track)
		go drainRTCP(c.ctx, receiver)
		if rt.Kind() == core.TrackVideo {
			c.mu.Lock()
			c.video = append(c.video, rt)
			c.mu.Unlock()
		}
		c.emit(core.CallEvent{Kind: core.CallRemoteTrack, Track: rt})
	})
}

// AttachLocal adds the tracks of stream. Kinds the stream lacks are still
// received.
func (c *Connection) AttachLocal(stream core.LocalStream) error {
	have := map[core.TrackKind]bool{}
	if stream != nil {
		for _, t := range stream.Tracks() {
			sender, err := c.pc.AddTrack(t.RTC())
			if err != nil {
				return fmt.Errorf("add %s track: %w", t.Kind(), err)
			}
			c.mu.Lock()
			c.senders[t.Kind()] = sender
			c.mu.Unlock()
			have[t.Kind()] = true
			go drainRTCP(c.ctx, sender)
		}
	}
	for kind, codecType := range map[core.TrackKind]webrtc.RTPCodecType{
		core.TrackAudio: webrtc.RTPCodecTypeAudio,
		core.TrackVideo: webrtc.RTPCodecTypeVideo,
	} {
		if have[kind] {
			continue
		}
		if _, err := c.pc.AddTransceiverFromKind(codecType, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			return fmt.Errorf("add %s transceiver: %w", kind, err)
		}
	}
	return nil
}

// CreateOffer returns a complete offer; candidates are gathered up front.
func (c *Connection) CreateOffer() (string, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	<-gatherComplete
	return c.pc.LocalDescription().SDP, nil
}

func (c *Connection) ApplyOfferAndCreateAnswer(sdp string) (string, error) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return "", err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return "", err
	}

	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return "", err
	}
	<-gatherComplete

	return c.pc.LocalDescription().SDP, nil
}

func (c *Connection) ApplyAnswer(sdp string) error {
	return c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp})
}

// OnClosed is called once when the call ends; local is true when Close
// ended it.
func (c *Connection) OnClosed(fn func(local bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClosed = fn
}

func (c *Connection) ID() string                    { return c.id }
func (c *Connection) Remote() domain.Peer           { return c.remote }
func (c *Connection) Events() <-chan core.CallEvent { return c.events }

func (c *Connection) ReplaceTrack(kind core.TrackKind, track core.LocalTrack) error {
	c.mu.Lock()
	sender, ok := c.senders[kind]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSender, kind)
	}
	var local webrtc.TrackLocal
	if track != nil {
		local = track.RTC()
	}
	return sender.ReplaceTrack(local)
}

// RequestKeyframe sends a PLI for every remote video track.
func (c *Connection) RequestKeyframe() error {
	c.mu.Lock()
	video := append([]*remoteTrack(nil), c.video...)
	c.mu.Unlock()
	if len(video) == 0 {
		return nil
	}
	pkts := make([]rtcp.Packet, 0, len(video))
	for _, t := range video {
		pkts = append(pkts, &rtcp.PictureLossIndication{MediaSSRC: uint32(t.track.SSRC())})
	}
	return c.pc.WriteRTCP(pkts)
}

func (c *Connection) Close() error {
	c.terminate(nil, true)
	return nil
}

// Terminate ends the call on behalf of the remote side or the signaling
// layer. err nil means a clean hangup.
func (c *Connection) Terminate(err error) {
	c.terminate(err, false)
}

func (c *Connection) terminate(err error, local bool) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.done = true
	if err != nil {
		c.send(core.CallEvent{Kind: core.CallError, Err: err})
	}
	c.send(core.CallEvent{Kind: core.CallClosed})
	close(c.events)
	onClosed := c.onClosed
	c.mu.Unlock()

	c.cancel()
	c.relays.StopAll()
	if cerr := c.pc.Close(); cerr != nil {
		c.logger().Error().Err(cerr).Msg("close error")
	} else {
		c.logger().Info().Bool("local", local).Msg("closed")
	}
	if onClosed != nil {
		onClosed(local)
	}
}

func (c *Connection) emit(ev core.CallEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.send(ev)
}

// send requires c.mu.
func (c *Connection) send(ev core.CallEvent) {
	select {
	case c.events <- ev:
	default:
		c.logger().Warn().Int("kind", int(ev.Kind)).Msg("call event dropped")
	}
}

type rtcpReader interface {
	Read([]byte) (int, interceptor.Attributes, error)
}

// drainRTCP keeps interceptors fed; pion needs RTCP read on every sender and
// receiver.
func drainRTCP(ctx context.Context, r rtcpReader) {
	buf := make([]byte, 1500)
	for ctx.Err() == nil {
		if _, _, err := r.Read(buf); err != nil {
			return
		}
	}
}
