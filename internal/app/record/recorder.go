// Package record captures the RTP of every call track into an in-memory
// artifact while a call is active.
package record

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/core"
	"github.com/pion/rtp"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrAlreadyRecording = errors.New("recording already active")
	ErrNotRecording     = errors.New("recording not active")
)

type Recorder struct {
	clock clock.Clock

	mu  sync.Mutex
	cur *session
}

type session struct {
	started time.Time

	mu      sync.Mutex
	closed  bool
	tracks  []TrackInfo
	seen    map[string]struct{}
	chunks  [][]byte
	detach  []func()
	workers sync.WaitGroup
}

func New(clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.New()
	}
	return &Recorder{clock: clk}
}

func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur != nil
}

// Start taps the local sources and every current remote track.
func (r *Recorder) Start(local []core.LocalTrack, remote []core.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur != nil {
		return ErrAlreadyRecording
	}
	s := &session{started: r.clock.Now(), seen: make(map[string]struct{})}
	for _, t := range local {
		s.tap(r.clock, t, true)
	}
	for _, t := range remote {
		s.tap(r.clock, t, false)
	}
	r.cur = s
	log.Info().Str("module", "record").Int("tracks", len(s.tracks)).Msg("recording started")
	return nil
}

// AddTrack taps a remote track that appeared after Start.
func (r *Recorder) AddTrack(t core.Track) error {
	r.mu.Lock()
	s := r.cur
	r.mu.Unlock()
	if s == nil {
		return ErrNotRecording
	}
	s.tap(r.clock, t, false)
	return nil
}

// Stop detaches every tap, drains queued packets and returns the artifact.
func (r *Recorder) Stop() (*Artifact, error) {
	s := r.take()
	if s == nil {
		return nil, ErrNotRecording
	}
	for _, d := range s.detachAll() {
		d()
	}
	s.workers.Wait()
	return r.finish(s)
}

// ForceStop finalizes without waiting for queued packets. It returns nil when
// no recording is active.
func (r *Recorder) ForceStop() *Artifact {
	s := r.take()
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	for _, d := range s.detachAll() {
		d()
	}
	art, err := r.finish(s)
	if err != nil {
		log.Error().Err(err).Str("module", "record").Msg("force stop")
		return nil
	}
	return art
}

func (r *Recorder) take() *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.cur
	r.cur = nil
	return s
}

func (r *Recorder) finish(s *session) (*Artifact, error) {
	s.mu.Lock()
	s.closed = true
	chunks := s.chunks
	tracks := append([]TrackInfo(nil), s.tracks...)
	s.chunks = nil
	s.mu.Unlock()

	art, err := assemble(Header{
		Version:   formatVersion,
		StartedAt: s.started,
		StoppedAt: r.clock.Now(),
		Tracks:    tracks,
	}, chunks)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "record").Int("chunks", art.Chunks).Int("bytes", art.Size()).Msg("recording finished")
	return art, nil
}

func (s *session) tap(clk clock.Clock, t core.Track, local bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, dup := s.seen[t.ID()]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[t.ID()] = struct{}{}
	s.tracks = append(s.tracks, TrackInfo{ID: t.ID(), Kind: string(t.Kind()), MimeType: t.MimeType(), Local: local})
	packets, detach := t.Subscribe()
	s.detach = append(s.detach, detach)
	s.workers.Add(1)
	s.mu.Unlock()

	go s.consume(clk, t.ID(), packets)
}

func (s *session) detachAll() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.detach
	s.detach = nil
	return d
}

func (s *session) consume(clk clock.Clock, trackID string, packets <-chan *rtp.Packet) {
	defer s.workers.Done()
	for pkt := range packets {
		raw, err := pkt.Marshal()
		if err != nil {
			log.Warn().Err(err).Str("module", "record").Str("track", trackID).Msg("marshal rtp")
			continue
		}
		chunk, err := msgpack.Marshal(&Chunk{
			Track:  trackID,
			Offset: clk.Since(s.started).Milliseconds(),
			Packet: raw,
		})
		if err != nil {
			log.Warn().Err(err).Str("module", "record").Msg("encode chunk")
			continue
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			continue
		}
		s.chunks = append(s.chunks, chunk)
		s.mu.Unlock()
	}
}
