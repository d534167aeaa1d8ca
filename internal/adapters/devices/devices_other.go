//go:build !linux

package devices

import (
	"context"
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/core"
	"github.com/pion/webrtc/v4"
)

var ErrUnsupported = errors.New("device capture is only supported on linux")

// Capturer is receive-only on this platform.
type Capturer struct{}

func NewCapturer(_ int, _ clock.Clock) (*Capturer, error) { return &Capturer{}, nil }

func (c *Capturer) Populate(me *webrtc.MediaEngine) error { return me.RegisterDefaultCodecs() }

func (c *Capturer) Open(context.Context, core.Constraints) ([]core.LocalTrack, error) {
	return nil, ErrUnsupported
}

func (c *Capturer) OpenDisplay(context.Context) (core.LocalTrack, error) {
	return nil, ErrUnsupported
}
