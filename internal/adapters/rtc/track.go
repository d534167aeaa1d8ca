package rtc

import (
	"github.com/dkeye/peercall/internal/app/fanout"
	"github.com/dkeye/peercall/internal/core"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// remoteTrack exposes a received track; its packets are read once by a
// relay and copied to every subscriber.
type remoteTrack struct {
	track  *webrtc.TrackRemote
	relays *fanout.RelayManager
}

func (t *remoteTrack) ID() string { return t.track.StreamID() + "/" + t.track.ID() }

func (t *remoteTrack) Kind() core.TrackKind {
	if t.track.Kind() == webrtc.RTPCodecTypeAudio {
		return core.TrackAudio
	}
	return core.TrackVideo
}

func (t *remoteTrack) MimeType() string { return t.track.Codec().MimeType }

func (t *remoteTrack) Subscribe() (<-chan *rtp.Packet, func()) {
	return t.relays.Subscribe(t.ID())
}
