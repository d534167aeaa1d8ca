package fanout

import (
	"context"
	"sync"

	"github.com/pion/rtp"
	"github.com/rs/zerolog/log"
)

// RelayManager owns the relays of one peer connection, keyed by track id.
type RelayManager struct {
	mu     sync.RWMutex
	relays map[string]*Relay
}

func NewRelayManager() *RelayManager {
	return &RelayManager{
		relays: make(map[string]*Relay),
	}
}

// StartRelay creates a relay for the track and starts its loop. A relay
// already running for id is replaced.
func (m *RelayManager) StartRelay(ctx context.Context, id string, src Source) *Relay {
	logger := log.With().
		Str("module", "fanout").
		Str("track", id).
		Logger()

	relayCtx, cancel := context.WithCancel(ctx)
	relay := NewRelay(src, cancel)

	m.mu.Lock()
	if old, ok := m.relays[id]; ok {
		logger.Info().Msg("replacing existing relay for track")
		old.Stop()
	}
	m.relays[id] = relay
	m.mu.Unlock()

	logger.Debug().Msg("starting relay loop")
	go relay.loop(relayCtx, &logger)
	return relay
}

// Subscribe taps the relay of id. Unknown ids yield a closed channel.
func (m *RelayManager) Subscribe(id string) (<-chan *rtp.Packet, func()) {
	m.mu.RLock()
	relay, ok := m.relays[id]
	m.mu.RUnlock()
	if !ok {
		ch := make(chan *rtp.Packet)
		close(ch)
		return ch, func() {}
	}
	return relay.Subscribe(DefaultBuffer)
}

func (m *RelayManager) StopRelay(id string) {
	m.mu.Lock()
	relay, ok := m.relays[id]
	if ok {
		delete(m.relays, id)
	}
	m.mu.Unlock()
	if ok {
		relay.Stop()
	}
}

func (m *RelayManager) StopAll() {
	m.mu.Lock()
	relays := m.relays
	m.relays = make(map[string]*Relay)
	m.mu.Unlock()
	for _, r := range relays {
		r.Stop()
	}
}

func (m *RelayManager) HasRelay(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.relays[id]
	return ok
}
