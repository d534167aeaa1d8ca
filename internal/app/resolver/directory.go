package resolver

import (
	"sync"

	"github.com/dkeye/peercall/internal/domain"
	"github.com/rs/zerolog/log"
)

type dirEntry struct {
	endpoint domain.EndpointID
	seq      uint64
}

// Directory is an append-only identity to endpoint multimap fed by presence
// events. Entries are never purged; endpoints observed gone are skipped.
type Directory struct {
	mu      sync.RWMutex
	seq     uint64
	entries map[domain.UserIdentity][]dirEntry
	gone    map[domain.EndpointID]struct{}
}

func NewDirectory() *Directory {
	return &Directory{
		entries: make(map[domain.UserIdentity][]dirEntry),
		gone:    make(map[domain.EndpointID]struct{}),
	}
}

// Observe records that peer is live. The latest observation wins on lookup.
func (d *Directory) Observe(peer domain.Peer) {
	if peer.Identity == "" || peer.Endpoint == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dead := d.gone[peer.Endpoint]; dead {
		return
	}
	d.seq++
	d.entries[peer.Identity] = append(d.entries[peer.Identity], dirEntry{endpoint: peer.Endpoint, seq: d.seq})
	log.Debug().Str("module", "resolver").Str("identity", peer.Identity.String()).Str("endpoint", peer.Endpoint.String()).Msg("observed endpoint")
}

// Forget marks endpoint disconnected; it is never returned again.
func (d *Directory) Forget(endpoint domain.EndpointID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gone[endpoint] = struct{}{}
}

func (d *Directory) Gone(endpoint domain.EndpointID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.gone[endpoint]
	return ok
}

// Lookup returns the most recently observed live endpoint for identity.
func (d *Directory) Lookup(identity domain.UserIdentity) (domain.EndpointID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	list := d.entries[identity]
	for i := len(list) - 1; i >= 0; i-- {
		if _, dead := d.gone[list[i].endpoint]; dead {
			continue
		}
		return list[i].endpoint, true
	}
	return "", false
}
