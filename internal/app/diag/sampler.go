// Package diag samples local video settings while a call is active.
package diag

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval     = time.Second
	DefaultBitsPerPixel = 0.1
)

type Snapshot struct {
	Width     int
	Height    int
	FrameRate float64
	// EstimatedBitrate is width*height*frameRate*bitsPerPixel in bits/s. It is a
	// heuristic derived from the source settings, not a measured statistic.
	EstimatedBitrate float64
	At               time.Time
}

// EstimateBitrate applies the bits-per-pixel heuristic to s.
func EstimateBitrate(s core.TrackSettings, bitsPerPixel float64) float64 {
	return float64(s.Width) * float64(s.Height) * s.FrameRate * bitsPerPixel
}

type Sampler struct {
	clock        clock.Clock
	interval     time.Duration
	bitsPerPixel float64
	metrics      *metrics.Client

	mu     sync.RWMutex
	latest Snapshot
	has    bool
	stop   chan struct{}
	done   chan struct{}
}

func New(clk clock.Clock, interval time.Duration, bitsPerPixel float64, m *metrics.Client) *Sampler {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if bitsPerPixel <= 0 {
		bitsPerPixel = DefaultBitsPerPixel
	}
	return &Sampler{clock: clk, interval: interval, bitsPerPixel: bitsPerPixel, metrics: m}
}

// Start samples source every interval until Stop. A running sampler is left as is.
func (s *Sampler) Start(source func() core.LocalTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.latest, s.has = Snapshot{}, false
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	ticker := s.clock.Ticker(s.interval)
	go s.loop(ticker, source, s.stop, s.done)
	log.Debug().Str("module", "diag").Dur("interval", s.interval).Msg("sampler started")
}

// Stop halts sampling and waits for the loop to exit. The last snapshot stays readable.
func (s *Sampler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
	log.Debug().Str("module", "diag").Msg("sampler stopped")
}

func (s *Sampler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stop != nil
}

func (s *Sampler) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.has
}

func (s *Sampler) loop(ticker *clock.Ticker, source func() core.LocalTrack, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.sample(now, source)
		}
	}
}

func (s *Sampler) sample(now time.Time, source func() core.LocalTrack) {
	track := source()
	if track == nil {
		return
	}
	settings := track.Settings()
	snap := Snapshot{
		Width:            settings.Width,
		Height:           settings.Height,
		FrameRate:        settings.FrameRate,
		EstimatedBitrate: EstimateBitrate(settings, s.bitsPerPixel),
		At:               now,
	}
	s.mu.Lock()
	if s.stop != nil {
		s.latest, s.has = snap, true
	}
	s.mu.Unlock()
	s.metrics.Video(snap.Width, snap.Height, snap.FrameRate, snap.EstimatedBitrate)
}
