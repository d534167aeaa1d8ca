package rtc

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/peercall/internal/config"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

// staticTrack is a LocalTrack backed by a pion static sample track.
type staticTrack struct {
	track *webrtc.TrackLocalStaticRTP
	kind  core.TrackKind
}

func newStaticTrack(t *testing.T, kind core.TrackKind) *staticTrack {
	t.Helper()
	mime := webrtc.MimeTypeOpus
	if kind == core.TrackVideo {
		mime = webrtc.MimeTypeVP8
	}
	tr, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: mime}, string(kind), "local")
	require.NoError(t, err)
	return &staticTrack{track: tr, kind: kind}
}

func (s *staticTrack) ID() string                   { return s.track.ID() }
func (s *staticTrack) Kind() core.TrackKind         { return s.kind }
func (s *staticTrack) MimeType() string             { return s.track.Codec().MimeType }
func (s *staticTrack) Settings() core.TrackSettings { return core.TrackSettings{} }
func (s *staticTrack) SetEnabled(bool)              {}
func (s *staticTrack) Enabled() bool                { return true }
func (s *staticTrack) RTC() webrtc.TrackLocal       { return s.track }
func (s *staticTrack) Close() error                 { return nil }
func (s *staticTrack) Subscribe() (<-chan *rtp.Packet, func()) {
	ch := make(chan *rtp.Packet)
	close(ch)
	return ch, func() {}
}

type stream []core.LocalTrack

func (s stream) Audio() core.LocalTrack    { return s[0] }
func (s stream) Video() core.LocalTrack    { return s[1] }
func (s stream) Tracks() []core.LocalTrack { return s }

func newPair(t *testing.T) (*Connection, *Connection) {
	t.Helper()
	api, err := NewAPI(nil)
	require.NoError(t, err)
	cfg := webrtc.Configuration{}

	caller, err := NewConnection(api, cfg, "call-1", domain.Peer{Identity: "bob", Endpoint: "ep-b"})
	require.NoError(t, err)
	callee, err := NewConnection(api, cfg, "call-1", domain.Peer{Identity: "alice", Endpoint: "ep-a"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = caller.Close()
		_ = callee.Close()
	})
	caller.Start()
	callee.Start()
	return caller, callee
}

func TestNegotiate_RemoteTracksArrive(t *testing.T) {
	caller, callee := newPair(t)
	local := stream{newStaticTrack(t, core.TrackAudio), newStaticTrack(t, core.TrackVideo)}
	require.NoError(t, caller.AttachLocal(local))
	require.NoError(t, callee.AttachLocal(nil))

	offer, err := caller.CreateOffer()
	require.NoError(t, err)
	answer, err := callee.ApplyOfferAndCreateAnswer(offer)
	require.NoError(t, err)
	require.NoError(t, caller.ApplyAnswer(answer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		var seq uint16
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				seq++
				for _, tr := range local {
					pkt := &rtp.Packet{Header: rtp.Header{Version: 2, SequenceNumber: seq, Timestamp: uint32(seq) * 960}, Payload: []byte{0x10, 0x00, 0x00}}
					_ = tr.(*staticTrack).track.WriteRTP(pkt)
				}
			}
		}
	}()

	kinds := map[core.TrackKind]bool{}
	timeout := time.After(10 * time.Second)
	for len(kinds) < 2 {
		select {
		case ev := <-callee.Events():
			require.Equal(t, core.CallRemoteTrack, ev.Kind)
			kinds[ev.Track.Kind()] = true
		case <-timeout:
			t.Fatalf("remote tracks: %v", kinds)
		}
	}
	require.NoError(t, callee.RequestKeyframe())
	require.NoError(t, caller.ReplaceTrack(core.TrackVideo, newStaticTrack(t, core.TrackVideo)))
}

func TestClose_EmitsClosedOnceAndNotifies(t *testing.T) {
	caller, _ := newPair(t)
	notified := make(chan bool, 2)
	caller.OnClosed(func(local bool) { notified <- local })

	require.NoError(t, caller.Close())
	require.NoError(t, caller.Close())

	var kinds []core.CallEventKind
	for ev := range caller.Events() {
		kinds = append(kinds, ev.Kind)
	}
	require.Equal(t, []core.CallEventKind{core.CallClosed}, kinds)
	require.True(t, <-notified)
	require.Empty(t, notified)
}

func TestTerminate_ReportsError(t *testing.T) {
	caller, _ := newPair(t)
	caller.Terminate(ErrICEFailed)

	ev := <-caller.Events()
	require.Equal(t, core.CallError, ev.Kind)
	require.ErrorIs(t, ev.Err, ErrICEFailed)
	ev = <-caller.Events()
	require.Equal(t, core.CallClosed, ev.Kind)
}

func TestReplaceTrack_NoSender(t *testing.T) {
	caller, _ := newPair(t)
	require.ErrorIs(t, caller.ReplaceTrack(core.TrackVideo, nil), ErrNoSender)
}

func TestConfiguration(t *testing.T) {
	require.Equal(t, DefaultWebRTCConfig(), Configuration(nil))
	cfg := Configuration([]config.ICEServer{{URLs: []string{"turn:t.example.org"}, Username: "u", Credential: "p"}})
	require.Len(t, cfg.ICEServers, 1)
	require.Equal(t, "u", cfg.ICEServers[0].Username)
}
