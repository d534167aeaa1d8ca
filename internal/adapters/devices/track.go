// Package devices captures camera, microphone and screen with pion/mediadevices.
package devices

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/app/fanout"
	"github.com/dkeye/peercall/internal/core"
	"github.com/pion/interceptor"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/io/audio"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const mtu = 1200

// Track adapts a mediadevices track to core.LocalTrack. Disabled tracks keep
// flowing with black frames or silence so the remote side sees no renegotiation.
type Track struct {
	src     mediadevices.Track
	kind    core.TrackKind
	mime    string
	enabled atomic.Bool
	meter   *frameMeter
	relays  *fanout.RelayManager

	mu      sync.Mutex
	tapping bool
}

func newTrack(src mediadevices.Track, clk clock.Clock) *Track {
	t := &Track{src: src, kind: core.TrackAudio, mime: webrtc.MimeTypeOpus, relays: fanout.NewRelayManager()}
	t.enabled.Store(true)
	switch s := src.(type) {
	case *mediadevices.VideoTrack:
		t.kind, t.mime = core.TrackVideo, webrtc.MimeTypeVP8
		t.meter = newFrameMeter(clk)
		s.Transform(t.meter.transform, blackout(&t.enabled))
	case *mediadevices.AudioTrack:
		s.Transform(silence(&t.enabled))
	}
	return t
}

func (t *Track) ID() string              { return t.src.ID() }
func (t *Track) Kind() core.TrackKind    { return t.kind }
func (t *Track) MimeType() string        { return t.mime }
func (t *Track) RTC() webrtc.TrackLocal  { return t.src }
func (t *Track) SetEnabled(enabled bool) { t.enabled.Store(enabled) }
func (t *Track) Enabled() bool           { return t.enabled.Load() }

func (t *Track) Settings() core.TrackSettings {
	if t.meter == nil {
		return core.TrackSettings{}
	}
	return t.meter.settings()
}

// Subscribe taps the encoded RTP stream. The encoder reader is opened on the
// first subscription and shared by later ones.
func (t *Track) Subscribe() (<-chan *rtp.Packet, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tapping {
		reader, err := t.src.NewRTPReader(t.mime, uint32(time.Now().UnixNano()), mtu)
		if err != nil {
			log.Warn().Err(err).Str("module", "devices").Str("track", t.ID()).Msg("rtp reader")
		} else {
			t.relays.StartRelay(context.Background(), t.ID(), &readerSource{r: reader})
			t.tapping = true
		}
	}
	return t.relays.Subscribe(t.ID())
}

func (t *Track) Close() error {
	t.mu.Lock()
	t.relays.StopAll()
	t.tapping = false
	t.mu.Unlock()
	return t.src.Close()
}

// readerSource turns a batch reader into a packet at a time source.
type readerSource struct {
	r       mediadevices.RTPReadCloser
	pending []*rtp.Packet
}

func (s *readerSource) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	for len(s.pending) == 0 {
		pkts, release, err := s.r.Read()
		if err != nil {
			_ = s.r.Close()
			if errors.Is(err, io.EOF) {
				return nil, nil, io.EOF
			}
			return nil, nil, err
		}
		s.pending = append(s.pending, pkts...)
		if release != nil {
			release()
		}
	}
	pkt := s.pending[0]
	s.pending = s.pending[1:]
	return pkt, nil, nil
}

// frameMeter measures the dimensions and rate of frames passing through.
type frameMeter struct {
	clock clock.Clock

	mu          sync.Mutex
	width       int
	height      int
	frameRate   float64
	windowStart time.Time
	frames      int
}

func newFrameMeter(clk clock.Clock) *frameMeter {
	if clk == nil {
		clk = clock.New()
	}
	return &frameMeter{clock: clk}
}

func (m *frameMeter) observe(b image.Rectangle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.width, m.height = b.Dx(), b.Dy()
	if m.windowStart.IsZero() {
		m.windowStart = now
	}
	m.frames++
	if elapsed := now.Sub(m.windowStart); elapsed >= time.Second {
		m.frameRate = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.windowStart = now
	}
}

func (m *frameMeter) settings() core.TrackSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return core.TrackSettings{Width: m.width, Height: m.height, FrameRate: m.frameRate}
}

func (m *frameMeter) transform(r video.Reader) video.Reader {
	return video.ReaderFunc(func() (image.Image, func(), error) {
		img, release, err := r.Read()
		if err == nil && img != nil {
			m.observe(img.Bounds())
		}
		return img, release, err
	})
}

// blackout replaces frames with black ones of the same size while disabled.
func blackout(enabled *atomic.Bool) video.TransformFunc {
	return func(r video.Reader) video.Reader {
		return video.ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil || enabled.Load() {
				return img, release, err
			}
			if release != nil {
				release()
			}
			return blackFrame(img.Bounds()), func() {}, nil
		})
	}
}

func blackFrame(b image.Rectangle) *image.YCbCr {
	img := image.NewYCbCr(b, image.YCbCrSubsampleRatio420)
	for i := range img.Y {
		img.Y[i] = 16
	}
	for i := range img.Cb {
		img.Cb[i] = 128
		img.Cr[i] = 128
	}
	return img
}

// silence replaces audio chunks with zeroed ones while disabled.
func silence(enabled *atomic.Bool) audio.TransformFunc {
	return func(r audio.Reader) audio.Reader {
		return audio.ReaderFunc(func() (wave.Audio, func(), error) {
			chunk, release, err := r.Read()
			if err != nil || enabled.Load() {
				return chunk, release, err
			}
			if release != nil {
				release()
			}
			info := chunk.ChunkInfo()
			switch chunk.(type) {
			case *wave.Float32Interleaved:
				return wave.NewFloat32Interleaved(info), func() {}, nil
			default:
				return wave.NewInt16Interleaved(info), func() {}, nil
			}
		})
	}
}
