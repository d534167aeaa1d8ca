package fanout

import (
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
)

type TrackState int32

const (
	TrackStateOk TrackState = iota
	TrackStateMuted
	TrackStateDelete
)

// OutTrack is one subscriber of a relay. Packets are dropped when the
// subscriber falls behind.
type OutTrack struct {
	ch    chan *rtp.Packet
	state atomic.Int32 // Zero by default (TrackStateOk)

	mu     sync.Mutex
	closed bool
}

func NewOutTrack(buffer int) *OutTrack {
	return &OutTrack{ch: make(chan *rtp.Packet, buffer)}
}

func (ot *OutTrack) C() <-chan *rtp.Packet { return ot.ch }

func (ot *OutTrack) GetState() TrackState {
	return TrackState(ot.state.Load())
}

func (ot *OutTrack) MarkOk() {
	ot.state.Store(int32(TrackStateOk))
}

func (ot *OutTrack) MarkMuted() {
	ot.state.Store(int32(TrackStateMuted))
}

func (ot *OutTrack) MarkDelete() {
	ot.state.Store(int32(TrackStateDelete))
}

// write reports false if the packet was dropped.
func (ot *OutTrack) write(pkt *rtp.Packet) bool {
	ot.mu.Lock()
	defer ot.mu.Unlock()
	if ot.closed {
		return false
	}
	select {
	case ot.ch <- pkt:
		return true
	default:
		return false
	}
}

func (ot *OutTrack) close() {
	ot.mu.Lock()
	defer ot.mu.Unlock()
	if !ot.closed {
		ot.closed = true
		close(ot.ch)
	}
}
