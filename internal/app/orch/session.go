package orch

import (
	"sync"
	"time"

	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
)

type Session struct {
	LocalParty     domain.UserIdentity
	RemoteIdentity domain.UserIdentity
	RemoteEndpoint domain.EndpointID
	Direction      domain.Direction
	State          domain.State
	StartedAt      time.Time
	LastError      error
}

// Snapshot is what observers see after every state change.
type Snapshot struct {
	Session
	Muted         bool
	VideoEnabled  bool
	ScreenSharing bool
	Recording     bool
	RemoteTracks  int
}

// RemoteTrackSet holds the remote tracks of the session keyed by endpoint.
type RemoteTrackSet struct {
	mu     sync.RWMutex
	tracks map[domain.EndpointID][]core.Track
}

func NewRemoteTrackSet() *RemoteTrackSet {
	return &RemoteTrackSet{tracks: make(map[domain.EndpointID][]core.Track)}
}

func (s *RemoteTrackSet) Add(ep domain.EndpointID, t core.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.tracks[ep] {
		if have.ID() == t.ID() {
			return
		}
	}
	s.tracks[ep] = append(s.tracks[ep], t)
}

func (s *RemoteTrackSet) Of(ep domain.EndpointID) []core.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Track(nil), s.tracks[ep]...)
}

func (s *RemoteTrackSet) All() []core.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Track
	for _, ts := range s.tracks {
		out = append(out, ts...)
	}
	return out
}

func (s *RemoteTrackSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, ts := range s.tracks {
		n += len(ts)
	}
	return n
}

func (s *RemoteTrackSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.tracks)
}
