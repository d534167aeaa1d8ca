package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dkeye/peercall/internal/app/orch"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/rs/zerolog/log"
)

const help = `a accept  x reject  h hang up  m mute  v video  s screen  r record  d diag  q quit`

// shell drives the controller from single-letter commands on stdin and logs
// every state change.
type shell struct {
	c     *client
	lines chan string
}

func newShell(c *client) *shell {
	s := &shell{c: c, lines: make(chan string)}
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			s.lines <- strings.TrimSpace(sc.Text())
		}
	}()
	return s
}

// loop runs until ctx ends, the user quits or, when once is set, the first
// call is over.
func (s *shell) loop(ctx context.Context, once bool) error {
	snaps, unsubscribe := s.c.ctl.Subscribe()
	defer unsubscribe()
	fmt.Fprintln(os.Stderr, help)

	busy := once
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			s.report(snap)
			switch {
			case snap.State == domain.StateRingingIncoming && s.c.cfg.Call.AutoAnswer:
				if _, err := s.c.ctl.AcceptCall(ctx); err != nil {
					log.Warn().Err(err).Str("module", "cli").Msg("auto answer")
				}
			case snap.State == domain.StateIdle && busy && once:
				if snap.LastError != nil {
					return snap.LastError
				}
				return nil
			}
			busy = snap.State != domain.StateIdle
		case line := <-s.lines:
			if line == "q" {
				return nil
			}
			if err := s.command(ctx, line); err != nil {
				log.Warn().Err(err).Str("module", "cli").Str("command", line).Msg("command failed")
			}
		}
	}
}

func (s *shell) command(ctx context.Context, line string) error {
	ctl := s.c.ctl
	switch line {
	case "a":
		_, err := ctl.AcceptCall(ctx)
		return err
	case "x":
		return ctl.RejectCall(ctx)
	case "h":
		return ctl.EndCall(ctx)
	case "m":
		_, err := ctl.ToggleMute(ctx)
		return err
	case "v":
		_, err := ctl.ToggleVideo(ctx)
		return err
	case "s":
		_, err := ctl.ToggleScreenShare(ctx)
		return err
	case "r":
		if !ctl.Snapshot().Recording {
			_, err := ctl.StartRecording(ctx)
			return err
		}
		art, err := ctl.StopRecording(ctx)
		if err != nil {
			return err
		}
		s.c.save(art)
	case "d":
		if d, ok := ctl.Diagnostics(); ok {
			log.Info().Str("module", "cli").Int("width", d.Width).Int("height", d.Height).
				Float64("fps", d.FrameRate).Float64("est_bitrate", d.EstimatedBitrate).Msg("diagnostics")
		} else {
			log.Info().Str("module", "cli").Msg("no diagnostics yet")
		}
	case "":
	default:
		fmt.Fprintln(os.Stderr, help)
	}
	return nil
}

func (s *shell) report(snap orch.Snapshot) {
	ev := log.Info().Str("module", "cli").Str("state", snap.State.String())
	if snap.RemoteIdentity != "" {
		ev = ev.Str("remote", snap.RemoteIdentity.String())
	}
	if snap.State == domain.StateActive {
		ev = ev.Bool("muted", snap.Muted).Bool("video", snap.VideoEnabled).
			Bool("screen", snap.ScreenSharing).Bool("recording", snap.Recording).Int("remote_tracks", snap.RemoteTracks)
	}
	if snap.LastError != nil && snap.State == domain.StateFailed {
		ev = ev.AnErr("last_error", snap.LastError)
	}
	if snap.State == domain.StateRingingIncoming && !s.c.cfg.Call.AutoAnswer {
		ev = ev.Str("hint", "a to accept, x to reject")
	}
	ev.Msg("session")
}
