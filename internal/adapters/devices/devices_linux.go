//go:build linux

package devices

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/core"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	_ "github.com/pion/mediadevices/pkg/driver/screen"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Capturer opens V4L2 cameras, malgo microphones and X11 screens.
type Capturer struct {
	selector *mediadevices.CodecSelector
	clock    clock.Clock
}

func NewCapturer(videoBitrate int, clk clock.Clock) (*Capturer, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, fmt.Errorf("vp8 params: %w", err)
	}
	if videoBitrate > 0 {
		vpxParams.BitRate = videoBitrate
	}
	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, fmt.Errorf("opus params: %w", err)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Capturer{
		selector: mediadevices.NewCodecSelector(
			mediadevices.WithVideoEncoders(&vpxParams),
			mediadevices.WithAudioEncoders(&opusParams),
		),
		clock: clk,
	}, nil
}

// Populate registers the encoder codecs on a media engine.
func (c *Capturer) Populate(me *webrtc.MediaEngine) error {
	c.selector.Populate(me)
	return nil
}

// Open captures with the requested constraints. A stream needing both kinds
// falls back to a single kind when one device is missing or busy.
func (c *Capturer) Open(_ context.Context, want core.Constraints) ([]core.LocalTrack, error) {
	type attempt struct {
		video, audio bool
		label        string
	}
	var attempts []attempt
	switch {
	case want.Video && want.Audio:
		attempts = []attempt{{true, true, "video+audio"}, {true, false, "video-only"}, {false, true, "audio-only"}}
	case want.Video:
		attempts = []attempt{{true, false, "video-only"}}
	case want.Audio:
		attempts = []attempt{{false, true, "audio-only"}}
	default:
		return nil, errors.New("no media kind requested")
	}

	var errs []error
	for _, a := range attempts {
		constraints := mediadevices.MediaStreamConstraints{Codec: c.selector}
		if a.video {
			constraints.Video = func(mc *mediadevices.MediaTrackConstraints) {
				mc.FrameFormat = prop.FrameFormatOneOf{
					frame.FormatYUYV,
					frame.FormatI420,
					frame.FormatI444,
					frame.FormatRGBA,
				}
				if want.Width > 0 {
					mc.Width = prop.IntRanged{Max: want.Width}
				}
				if want.Height > 0 {
					mc.Height = prop.IntRanged{Max: want.Height}
				}
				if want.FrameRate > 0 {
					mc.FrameRate = prop.Float(want.FrameRate)
				}
			}
		}
		if a.audio {
			constraints.Audio = func(_ *mediadevices.MediaTrackConstraints) {}
		}
		stream, err := mediadevices.GetUserMedia(constraints)
		if err != nil {
			log.Warn().Err(err).Str("module", "devices").Str("attempt", a.label).Msg("capture attempt failed")
			errs = append(errs, fmt.Errorf("%s: %w", a.label, err))
			continue
		}
		tracks := c.wrap(stream.GetTracks())
		log.Info().Str("module", "devices").Str("attempt", a.label).Int("tracks", len(tracks)).Msg("media captured")
		return tracks, nil
	}
	return nil, errors.Join(errs...)
}

func (c *Capturer) OpenDisplay(_ context.Context) (core.LocalTrack, error) {
	stream, err := mediadevices.GetDisplayMedia(mediadevices.MediaStreamConstraints{
		Codec: c.selector,
		Video: func(_ *mediadevices.MediaTrackConstraints) {},
	})
	if err != nil {
		return nil, fmt.Errorf("display capture: %w", err)
	}
	tracks := stream.GetVideoTracks()
	if len(tracks) == 0 {
		return nil, errors.New("display capture: no video track")
	}
	for _, extra := range tracks[1:] {
		_ = extra.Close()
	}
	return newTrack(tracks[0], c.clock), nil
}

func (c *Capturer) wrap(tracks []mediadevices.Track) []core.LocalTrack {
	out := make([]core.LocalTrack, 0, len(tracks))
	for _, mt := range tracks {
		mt.OnEnded(func(err error) {
			if err != nil {
				log.Warn().Err(err).Str("module", "devices").Str("track", mt.ID()).Msg("local track ended")
			}
		})
		out = append(out, newTrack(mt, c.clock))
	}
	return out
}
