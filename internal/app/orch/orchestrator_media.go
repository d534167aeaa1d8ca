package orch

import (
	"context"

	"github.com/dkeye/peercall/internal/app/record"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/rs/zerolog/log"
)

// ToggleMute flips the microphone while Active and returns the muted state.
// Outside Active it changes nothing.
func (c *Controller) ToggleMute(ctx context.Context) (bool, error) {
	var muted bool
	err := c.exec(ctx, func() {
		muted = c.media.Muted()
		if !c.activeOrNoop("toggle mute") {
			return
		}
		muted = !muted
		c.media.SetMuted(muted)
		c.publish()
	})
	return muted, err
}

// ToggleVideo flips the camera while Active and returns whether video is on.
func (c *Controller) ToggleVideo(ctx context.Context) (bool, error) {
	var enabled bool
	err := c.exec(ctx, func() {
		enabled = c.media.VideoEnabled()
		if !c.activeOrNoop("toggle video") {
			return
		}
		enabled = !enabled
		c.media.SetVideoEnabled(enabled)
		c.publish()
	})
	return enabled, err
}

// ToggleScreenShare swaps the outgoing video between camera and display
// capture and returns whether the screen is now shared.
func (c *Controller) ToggleScreenShare(ctx context.Context) (bool, error) {
	type result struct {
		on  bool
		err error
	}
	reply := make(chan result, 1)
	if err := c.exec(ctx, func() {
		if !c.activeOrNoop("toggle screen share") {
			reply <- result{on: c.media.ScreenSharing()}
			return
		}
		call := c.call
		if c.media.ScreenSharing() {
			camera, err := c.media.StopScreenShare()
			if err == nil && camera != nil && call != nil {
				err = call.ReplaceTrack(core.TrackVideo, camera)
			}
			c.publish()
			reply <- result{on: false, err: err}
			return
		}
		gen, actx := c.gen, c.attemptCtx
		go func() {
			screen, err := c.media.StartScreenShare(actx)
			c.post(gen, func() {
				if err != nil {
					reply <- result{err: err}
					return
				}
				if call != nil {
					if rerr := call.ReplaceTrack(core.TrackVideo, screen); rerr != nil {
						_, _ = c.media.StopScreenShare()
						reply <- result{err: domain.Wrap(domain.KindPeerError, "replace track", rerr)}
						return
					}
				}
				c.publish()
				reply <- result{on: true}
			}, func() {
				reply <- result{err: ErrCallEnded}
			})
		}()
	}); err != nil {
		return false, err
	}
	select {
	case r := <-reply:
		return r.on, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// StartRecording taps local and remote tracks. Only valid while Active.
func (c *Controller) StartRecording(ctx context.Context) (bool, error) {
	var err error
	if xerr := c.exec(ctx, func() {
		if c.sess.State != domain.StateActive {
			err = ErrNotActive
			return
		}
		var local []core.LocalTrack
		if h := c.media.Handle(); h != nil {
			local = h.Tracks()
		}
		if err = c.recorder.Start(local, c.remote.All()); err != nil {
			return
		}
		if c.call != nil {
			if kerr := c.call.RequestKeyframe(); kerr != nil {
				log.Warn().Err(kerr).Str("module", "orch").Msg("keyframe request")
			}
		}
		c.publish()
	}); xerr != nil {
		return false, xerr
	}
	return err == nil, err
}

// StopRecording finalizes the recording and hands the artifact to the caller.
func (c *Controller) StopRecording(ctx context.Context) (*record.Artifact, error) {
	var (
		art *record.Artifact
		err error
	)
	if xerr := c.exec(ctx, func() {
		art, err = c.recorder.Stop()
		c.publish()
	}); xerr != nil {
		return nil, xerr
	}
	return art, err
}

func (c *Controller) activeOrNoop(op string) bool {
	if c.sess.State == domain.StateActive {
		return true
	}
	log.Debug().Str("module", "orch").Str("op", op).Str("state", c.sess.State.String()).Msg("ignored outside active call")
	return false
}
