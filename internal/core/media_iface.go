package core

//go:generate mockgen -source=media_iface.go -destination=mocks/media_mock.go -package=mocks

import (
	"context"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// TrackSettings are the measured properties of a video source.
type TrackSettings struct {
	Width     int
	Height    int
	FrameRate float64
}

type Track interface {
	ID() string
	Kind() TrackKind
	MimeType() string
	// Subscribe taps the RTP stream of the track. The returned func detaches
	// the tap; the channel is closed afterwards.
	Subscribe() (<-chan *rtp.Packet, func())
}

type LocalTrack interface {
	Track
	Settings() TrackSettings
	// SetEnabled keeps the track attached but sends silence or black frames when false.
	SetEnabled(enabled bool)
	Enabled() bool
	// RTC returns the track to attach to a peer connection.
	RTC() webrtc.TrackLocal
	Close() error
}

type LocalStream interface {
	Audio() LocalTrack
	Video() LocalTrack
	Tracks() []LocalTrack
}

type Constraints struct {
	Audio     bool
	Video     bool
	Width     int
	Height    int
	FrameRate float64
}

// Capturer opens capture devices. Failures mean devices are missing or
// permission was denied.
type Capturer interface {
	Open(ctx context.Context, c Constraints) ([]LocalTrack, error)
	OpenDisplay(ctx context.Context) (LocalTrack, error)
}
