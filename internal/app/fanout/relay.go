// Package fanout copies the RTP stream of one track to any number of taps.
package fanout

import (
	"context"
	"maps"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
)

const DefaultBuffer = 256

// Source yields RTP packets; *webrtc.TrackRemote satisfies it.
type Source interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

type Relay struct {
	Src Source

	mu        sync.RWMutex
	outTracks map[int]*OutTrack
	nextID    int
	done      bool

	cancel context.CancelFunc
}

func NewRelay(src Source, cancel context.CancelFunc) *Relay {
	return &Relay{
		Src:       src,
		outTracks: make(map[int]*OutTrack),
		cancel:    cancel,
	}
}

// loop reads RTP packets from the source and forwards them to all OutTracks.
func (r *Relay) loop(ctx context.Context, logger *zerolog.Logger) {
	defer r.closeAll()
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("relay ctx done")
			return
		default:
		}
		pkt, _, err := r.Src.ReadRTP()
		if err != nil {
			logger.Debug().Err(err).Msg("relay source ended")
			return
		}
		r.forward(pkt, logger)
	}
}

func (r *Relay) forward(pkt *rtp.Packet, logger *zerolog.Logger) {
	r.mu.RLock()
	snapshot := make(map[int]*OutTrack, len(r.outTracks))
	maps.Copy(snapshot, r.outTracks)
	r.mu.RUnlock()

	var dirty []int
	for id, ot := range snapshot {
		switch ot.GetState() {
		case TrackStateDelete:
			dirty = append(dirty, id)
		case TrackStateMuted:
		case TrackStateOk:
			if !ot.write(pkt) {
				logger.Trace().Int("tap", id).Uint16("seq", pkt.SequenceNumber).Msg("tap full, packet dropped")
			}
		}
	}

	// Cleanup is done outside the RLock.
	if len(dirty) > 0 {
		r.cleanupDeleted(dirty)
	}
}

func (r *Relay) cleanupDeleted(dirty []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range dirty {
		if ot, ok := r.outTracks[id]; ok {
			ot.close()
			delete(r.outTracks, id)
		}
	}
}

func (r *Relay) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	for id, ot := range r.outTracks {
		ot.MarkDelete()
		ot.close()
		delete(r.outTracks, id)
	}
}

// Subscribe adds a tap. The returned func detaches it and closes the channel.
// Subscribing to a finished relay yields a closed channel.
func (r *Relay) Subscribe(buffer int) (<-chan *rtp.Packet, func()) {
	ot := NewOutTrack(buffer)
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		ot.close()
		return ot.C(), func() {}
	}
	id := r.nextID
	r.nextID++
	r.outTracks[id] = ot
	r.mu.Unlock()

	return ot.C(), func() {
		ot.MarkDelete()
		r.cleanupDeleted([]int{id})
	}
}

// SetMuted pauses or resumes delivery to every tap.
func (r *Relay) SetMuted(muted bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ot := range r.outTracks {
		if muted {
			ot.MarkMuted()
		} else {
			ot.MarkOk()
		}
	}
}

// Stop ends the loop and closes every tap without waiting for the source.
func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.closeAll()
}
