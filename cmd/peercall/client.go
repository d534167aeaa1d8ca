package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/adapters/devices"
	"github.com/dkeye/peercall/internal/adapters/rtc"
	"github.com/dkeye/peercall/internal/adapters/wsclient"
	"github.com/dkeye/peercall/internal/app/diag"
	"github.com/dkeye/peercall/internal/app/media"
	"github.com/dkeye/peercall/internal/app/orch"
	"github.com/dkeye/peercall/internal/app/record"
	"github.com/dkeye/peercall/internal/app/resolver"
	"github.com/dkeye/peercall/internal/app/transport"
	"github.com/dkeye/peercall/internal/config"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/dkeye/peercall/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// client is the wired call stack of one local party.
type client struct {
	cfg *config.Config
	ctl *orch.Controller
}

func newClient(cfg *config.Config) (*client, error) {
	local, err := domain.ParseIdentity(cfg.Client.Identity)
	if err != nil {
		return nil, fmt.Errorf("--identity: %w", err)
	}
	sctx, err := domain.ParseContext(cfg.Client.Context)
	if err != nil {
		return nil, fmt.Errorf("--context: %w", err)
	}

	clk := clock.New()
	m := metrics.NewClient(prometheus.NewRegistry())

	capturer, err := devices.NewCapturer(cfg.Media.VideoBitrate, clk)
	if err != nil {
		return nil, err
	}
	api, err := rtc.NewAPI(capturer.Populate)
	if err != nil {
		return nil, err
	}
	signaling := wsclient.New(cfg.Client.BrokerURL, api, rtc.Configuration(cfg.ICE.Servers))

	binding := transport.New(signaling, transport.Config{
		BaseDelay:   cfg.Reconnect.BaseDelay,
		MaxDelay:    cfg.Reconnect.MaxDelay,
		MaxAttempts: cfg.Reconnect.MaxAttempts,
		DialTimeout: cfg.Client.DialTimeout,
	}, clk, m)

	c := &client{cfg: cfg}
	c.ctl = orch.New(orch.Config{
		Local:           local,
		Context:         sctx,
		OutgoingTimeout: cfg.Call.OutgoingTimeout,
		ArtifactSink:    c.save,
	}, orch.Deps{
		Resolver: resolver.NewDefault(resolver.ConnectAs(binding, local, sctx), resolver.Options{
			Context:          sctx,
			ProbeTimeout:     cfg.Call.ProbeTimeout,
			DiscoveryTimeout: cfg.Call.DiscoveryTimeout,
		}),
		Binding: binding,
		Media: media.NewManager(capturer, core.Constraints{
			Audio:     cfg.Media.Audio,
			Video:     cfg.Media.Video,
			Width:     cfg.Media.Width,
			Height:    cfg.Media.Height,
			FrameRate: cfg.Media.FrameRate,
		}),
		Sampler:  diag.New(clk, cfg.Diag.Interval, cfg.Diag.BitsPerPixel, m),
		Recorder: record.New(clk),
		Clock:    clk,
		Metrics:  m,
	})
	return c, nil
}

// serve runs the controller for as long as fn does.
func (c *client) serve(ctx context.Context, fn func(*shell) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.ctl.Run(ctx) }()

	err := fn(newShell(c))
	cancel()
	if runErr := <-done; runErr != nil && !errors.Is(runErr, context.Canceled) {
		err = errors.Join(err, runErr)
	}
	return err
}

// save writes the raw artifact and its Ogg/IVF export under the record dir.
func (c *client) save(art *record.Artifact) {
	name := art.Header.StartedAt.Format("20060102-150405")
	dir := c.cfg.Call.RecordDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Str("module", "cli").Msg("create record dir")
		return
	}
	raw := filepath.Join(dir, name+".pcrec")
	if err := os.WriteFile(raw, art.Data, 0o644); err != nil {
		log.Error().Err(err).Str("module", "cli").Msg("write artifact")
		return
	}
	paths, err := record.Export(art, filepath.Join(dir, name))
	if err != nil {
		log.Warn().Err(err).Str("module", "cli").Str("artifact", raw).Msg("export")
	}
	log.Info().Str("module", "cli").Str("artifact", raw).Strs("files", paths).
		Dur("duration", art.Duration().Round(time.Millisecond)).Int("chunks", art.Chunks).Msg("recording saved")
}
